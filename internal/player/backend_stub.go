//go:build !libmpv

package player

import "errors"

func NewBackend() (Backend, error) {
	return nil, errors.New("libmpv backend is not enabled; build with -tags libmpv")
}
