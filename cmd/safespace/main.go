package main

import (
	"context"
	"errors"
	"log"

	safespace "github.com/safespace-ai/safespace"
	"github.com/safespace-ai/safespace/models/groq"
	"github.com/safespace-ai/safespace/server"
	"github.com/safespace-ai/safespace/sessions"
	"github.com/safespace-ai/safespace/stores"
	"github.com/safespace-ai/safespace/tools"
	"github.com/safespace-ai/safespace/tts"
)

func main() {
	cfg := safespace.LoadConfig()

	store, err := stores.NewStore(stores.NewStoreConfig(cfg.StoreType, cfg.StoreDSN))
	if err != nil {
		log.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	// The agent is only constructed when the LLM credential is present. The
	// server still starts either way so the UI can surface the config error.
	var agentIface sessions.AgentInterface
	if err := cfg.ValidateAgent(); err != nil {
		if errors.Is(err, safespace.ErrMissingGroqKey) {
			log.Printf("Configuration error: %v. Chat is disabled until the server is configured.", err)
		} else {
			log.Fatalf("Configuration error: %v", err)
		}
	} else {
		mainModel := groq.New_Groq_Model(cfg.GroqModel, cfg.GroqAPIKey, safespace.SystemPrompt)
		specialistModel := groq.New_Groq_Model(cfg.GroqModel, cfg.GroqAPIKey, safespace.SpecialistPrompt)
		tools.ConfigureSpecialist(specialistModel)

		agent, err := safespace.Create_Agent(mainModel, tools.DefaultTools())
		if err != nil {
			log.Fatalf("Failed to create agent: %v", err)
		}
		agentIface = &agent
	}

	if cfg.TelephonyConfigured() {
		tools.ConfigureDialer(tools.NewTwilioDialer(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber))
		log.Println("Telephony configured: emergency calls enabled")
	} else {
		log.Println("Telephony not configured: emergency tool will return fallback text")
	}

	var synth *tts.Synthesizer
	if cfg.GeminiAPIKey != "" {
		synth, err = tts.New(context.Background(), cfg.GeminiAPIKey)
		if err != nil {
			log.Printf("Warning: failed to initialize TTS, voice responses disabled: %v", err)
		} else {
			log.Println("TTS configured: voice responses enabled")
		}
	}

	registry := sessions.NewRegistry(store, cfg.SessionTTL)
	defer registry.Close()

	srv := server.New(server.Options{
		Agent:    agentIface,
		Registry: registry,
		Store:    store,
		Synth:    synth,
	})

	log.Printf("SafeSpace listening on %s", cfg.Addr)
	if err := srv.Run(cfg.Addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
