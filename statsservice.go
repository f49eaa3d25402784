package main

import (
	"context"

	"chorus/internal/stats"
)

type StatsService struct {
	stats *stats.Service
}

func NewStatsService(statsDomain *stats.Service) *StatsService {
	return &StatsService{stats: statsDomain}
}

func (s *StatsService) GetOverview() (stats.Overview, error) {
	return s.stats.Overview(context.Background())
}
