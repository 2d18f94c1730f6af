package main

import (
	"context"
	"fmt"
	"log"

	"github.com/kdduha/omni-reader/internal/cache"
	"github.com/kdduha/omni-reader/internal/config"
	"github.com/kdduha/omni-reader/internal/omni"
	"github.com/kdduha/omni-reader/internal/playback"
	"github.com/kdduha/omni-reader/internal/service"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

func newReaderService(ctx context.Context, logger *log.Logger, cfg *config.Config) (*service.ReaderService, func(), error) {
	credentials := omni.StaticCredential(cfg.OpenAI.APIKey)
	if cfg.OpenAI.APIKey == "" {
		logger.Println("OPENAI_API_KEY is empty, recognition requests will fail")
	}

	player := playback.ExecPlayer{Command: cfg.Playback.PlayerCommand}
	speaker, err := newSpeaker(cfg, credentials, player)
	if err != nil {
		return nil, nil, err
	}

	svc := service.NewReaderService(
		logger,
		omni.NewClient(logger, cfg.OpenAI, credentials),
		playback.NewSelector(logger, player, speaker, cfg.Playback.TempDir),
		cfg.Reader,
	)

	cleanup := func() {}
	if cfg.CacheEnable {
		redisCache := cache.NewRedisCache(cfg.RedisConfig)
		if err := redisCache.Ping(ctx); err != nil {
			logger.Printf("redis is not reachable: %v\n", err)
		}
		svc.SetCacheClient(redisCache)
		cleanup = func() { _ = redisCache.Close() }
		logger.Println("set redis as cache")
	}
	return svc, cleanup, nil
}

func newSpeaker(cfg *config.Config, credentials omni.CredentialSource, player playback.Player) (playback.Speaker, error) {
	switch cfg.Playback.SpeechBackend {
	case "exec":
		return playback.ExecSpeaker{
			Command: cfg.Playback.SpeechCommand,
			Rate:    cfg.Playback.SpeechRate,
			Pitch:   cfg.Playback.SpeechPitch,
		}, nil
	case "openai":
		client := openai.NewClient(
			option.WithBaseURL(cfg.OpenAI.BaseURL),
			option.WithRequestTimeout(cfg.OpenAI.Timeout),
		)
		return playback.NewOpenAISpeaker(
			client,
			credentials,
			player,
			cfg.Playback.SpeechModel,
			cfg.Playback.SpeechVoice,
			cfg.Playback.SpeechRate,
			cfg.Playback.TempDir,
		), nil
	default:
		return nil, fmt.Errorf("unknown speech backend {%s}", cfg.Playback.SpeechBackend)
	}
}
