package main

import (
	"context"
	"embed"
	"log"

	"chorus/internal/config"
	"chorus/internal/covers"
	"chorus/internal/db"
	"chorus/internal/library"
	"chorus/internal/player"
	"chorus/internal/scanner"
	"chorus/internal/stats"

	"github.com/wailsapp/wails/v3/pkg/application"
)

// Wails uses Go's `embed` package to embed the frontend files into the binary.
// Any files in the frontend/dist folder will be embedded into the binary and
// made available to the frontend.
// See https://pkg.go.dev/embed for more information.

//go:embed all:frontend/dist
var assets embed.FS

func init() {
	application.RegisterEvent[scanner.Progress](scanner.EventProgress)
	application.RegisterEvent[scanner.Status](scanner.EventLibraryStale)
	application.RegisterEvent[library.State](library.EventChanged)
	application.RegisterEvent[[]covers.Update](covers.EventCoversUpdated)
	application.RegisterEvent[player.State](player.EventStateChanged)
	application.RegisterEvent[player.PlaybackError](player.EventPlaybackError)
}

func main() {
	paths, err := config.ResolvePaths("chorus")
	if err != nil {
		log.Fatal(err)
	}

	settings, err := config.LoadSettings(paths.SettingsPath)
	if err != nil {
		log.Fatal(err)
	}

	sqliteDB, err := db.Bootstrap(paths.DBPath)
	if err != nil {
		log.Fatal(err)
	}
	defer sqliteDB.Close()

	store := library.NewStore(paths.LibraryPath)
	if loaded, err := store.Load(); err != nil {
		log.Fatal(err)
	} else if !loaded {
		log.Print("no saved library found, starting empty")
	}

	backend, err := player.NewBackend()
	if err != nil {
		log.Printf("playback disabled: %v", err)
	}
	sequencer := player.NewSequencer(backend)
	defer sequencer.Close()
	sequencer.SetVolume(settings.Volume)

	statsDomain := stats.NewService(sqliteDB)
	sequencer.SetOnTrackStart(func(song library.Song) {
		if err := statsDomain.RecordPlay(context.Background(), song); err != nil {
			log.Printf("stats: %v", err)
		}
	})

	coordinator := covers.NewCoordinator(store, paths.CoverCacheDir)
	defer coordinator.Close()

	scannerDomain := scanner.NewService(store, settings.ScanConcurrency)

	settingsService := NewSettingsService(paths.SettingsPath, settings, scannerDomain)
	libraryService := NewLibraryService(store, coordinator)
	scannerService := NewScannerService(scannerDomain, store)
	playerService := NewPlayerService(sequencer, store)
	coverService := NewCoverService(store, paths.CoverCacheDir)
	statsService := NewStatsService(statsDomain)

	app := application.New(application.Options{
		Name:        "Chorus",
		Description: "Desktop music library manager and player",
		Services: []application.Service{
			application.NewService(settingsService),
			application.NewService(libraryService),
			application.NewService(scannerService),
			application.NewService(playerService),
			application.NewService(statsService),
			application.NewServiceWithOptions(coverService, application.ServiceOptions{
				Route: "/covers",
			}),
		},
		Assets: application.AssetOptions{
			Handler: application.AssetFileServerFS(assets),
		},
		Mac: application.MacOptions{
			ApplicationShouldTerminateAfterLastWindowClosed: true,
		},
	})

	emit := func(eventName string, payload any) {
		app.Event.Emit(eventName, payload)
	}
	store.SetEmitter(emit)
	scannerDomain.SetEmitter(emit)
	coordinator.SetEmitter(emit)
	sequencer.SetEmitter(emit)
	sequencer.SetOnError(func(playbackErr player.PlaybackError) {
		log.Printf("player: %v", playbackErr)
	})

	if err := scannerDomain.StartWatching(); err != nil {
		log.Printf("scanner watcher disabled: %v", err)
	}
	defer scannerDomain.StopWatching()

	app.Window.NewWithOptions(application.WebviewWindowOptions{
		Title: "Chorus",
		Mac: application.MacWindow{
			InvisibleTitleBarHeight: 50,
			Backdrop:                application.MacBackdropTranslucent,
			TitleBar:                application.MacTitleBarHiddenInset,
		},
		BackgroundColour: application.NewRGB(16, 16, 20),
		URL:              "/",
	})

	err = app.Run()
	if err != nil {
		log.Fatal(err)
	}
}
