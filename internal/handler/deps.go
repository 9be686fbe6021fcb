package handler

import (
	"medichat/internal/app/assistant"
	"medichat/internal/app/prescription"
	"medichat/internal/app/signal"
	"medichat/internal/app/speech"
	"medichat/internal/configs"
)

// AppDeps bundles everything the handlers need.
type AppDeps struct {
	Config *configs.AppConfig

	Registry *signal.Registry
	Rooms    *signal.Broadcaster
	Relay    *signal.Relay

	Speech       *speech.Service
	Prescription *prescription.Service
	Assistant    *assistant.Service
}
