package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	actionx "github.com/mfigueroa/gastobot/agent/action"
	"github.com/mfigueroa/gastobot/agent/contract"
	"github.com/mfigueroa/gastobot/agent/dates"
	"github.com/mfigueroa/gastobot/agent/extract"
	"github.com/mfigueroa/gastobot/agent/memory"
	"github.com/mfigueroa/gastobot/agent/orchestrator"
	"github.com/mfigueroa/gastobot/agent/prompt"
	storex "github.com/mfigueroa/gastobot/agent/store"
	configx "github.com/mfigueroa/gastobot/pkg/config"
	evolutionx "github.com/mfigueroa/gastobot/pkg/evolution"
	geminix "github.com/mfigueroa/gastobot/pkg/gemini"
	_ "github.com/mfigueroa/gastobot/pkg/logger/autoload"
	openrouterx "github.com/mfigueroa/gastobot/pkg/openrouter"
)

type AppConfig struct {
	Provider       string `default:"openrouter"`
	Location       string `default:"America/Lima"`
	DashboardURL   string `split_words:"true"`
	MemoryTurns    int    `split_words:"true" default:"20"`
	MemorySessions int    `split_words:"true" default:"1000"`
}

func main() {
	session := flag.String("session", "local", "session id for the chat loop")
	flag.Parse()

	appCfg := configx.MustLoad[AppConfig]("GASTOBOT")
	ctx := context.Background()

	storeCfg := configx.MustLoad[storex.Config]("GASTOBOT_DB")
	pg, err := storex.New(*storeCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("storage init failed")
	}
	defer pg.Close()

	gen := newGenerator(ctx, appCfg.Provider)

	prompts := prompt.LoadPromptSet()
	resolver := dates.NewResolver(appCfg.Location)

	handlers, err := actionx.New(pg, resolver, prompts.Help, actionx.Config{
		DashboardURL: appCfg.DashboardURL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("handlers init failed")
	}

	mem := memory.NewStore(memory.Config{
		TurnCap:    appCfg.MemoryTurns,
		SessionCap: appCfg.MemorySessions,
	})

	orc, err := orchestrator.New(pg, extract.New(gen, prompts.Extractor), mem, handlers)
	if err != nil {
		log.Fatal().Err(err).Msg("orchestrator init failed")
	}

	messenger := newMessenger()

	log.Info().Str("provider", appCfg.Provider).Str("session", *session).Msg("agent ready")
	runChatLoop(ctx, orc, messenger, *session)
}

func newGenerator(ctx context.Context, provider string) contract.Generator {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gemini":
		cfg := configx.MustLoad[geminix.Config]("GEMINI")
		gen, err := geminix.New(ctx, *cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("gemini init failed")
		}
		return gen
	case "openrouter", "":
		cfg := configx.MustLoad[openrouterx.Config]("OPENROUTER")
		gen, err := openrouterx.New(*cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("openrouter init failed")
		}
		return gen
	default:
		log.Fatal().Str("provider", provider).Msg("unknown generation provider")
		return nil
	}
}

// newMessenger wires the WhatsApp gateway when configured; the chat loop
// still prints replies locally either way.
func newMessenger() contract.Messenger {
	cfg, err := configx.Load[evolutionx.Config]("EVOLUTION")
	if err != nil {
		log.Info().Msg("evolution gateway not configured, replies stay local")
		return nil
	}
	client, err := evolutionx.NewClient(*cfg)
	if err != nil {
		log.Warn().Err(err).Msg("evolution client init failed, replies stay local")
		return nil
	}
	return client
}

func runChatLoop(ctx context.Context, orc *orchestrator.Orchestrator, messenger contract.Messenger, session string) {
	fmt.Println("Escribe un mensaje (Ctrl+D para salir):")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		reply, err := orc.HandleMessage(ctx, session, text)
		if err != nil {
			log.Error().Err(err).Msg("message rejected")
			continue
		}
		fmt.Println(reply)

		if messenger != nil {
			if err := messenger.SendText(ctx, session, reply); err != nil {
				log.Warn().Err(err).Msg("gateway delivery failed")
			}
		}
	}
	if err := scanner.Err(); err != nil {
		log.Error().Err(err).Msg("stdin read failed")
	}
}
