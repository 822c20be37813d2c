package main

import (
	"github.com/rs/zerolog/log"

	catalogx "github.com/tanpawarit/Cartmate-Conversational-Shopping-Assistant/assistant/catalog"
	currencyx "github.com/tanpawarit/Cartmate-Conversational-Shopping-Assistant/assistant/currency"
	orchestratorx "github.com/tanpawarit/Cartmate-Conversational-Shopping-Assistant/assistant/orchestrator"
	searchx "github.com/tanpawarit/Cartmate-Conversational-Shopping-Assistant/assistant/search"
	toolx "github.com/tanpawarit/Cartmate-Conversational-Shopping-Assistant/assistant/tool"
	configx "github.com/tanpawarit/Cartmate-Conversational-Shopping-Assistant/pkg/config"
	_ "github.com/tanpawarit/Cartmate-Conversational-Shopping-Assistant/pkg/logger/autoload"
	openaix "github.com/tanpawarit/Cartmate-Conversational-Shopping-Assistant/pkg/openai"
	serverx "github.com/tanpawarit/Cartmate-Conversational-Shopping-Assistant/server"
)

type AppConfig struct {
	CatalogPath string `envconfig:"CATALOG_PATH" default:"data/products_list.csv"`
	ListenAddr  string `envconfig:"LISTEN_ADDR" default:":3000"`
}

func main() {
	appCfg := configx.MustNew[AppConfig]("")

	openaiCfg := configx.MustNew[openaix.Config]("OPENAI")
	openaiClient := openaix.NewClient(*openaiCfg)
	if openaiClient == nil {
		log.Fatal().Msg("failed to initialize openai client")
	}

	store, err := catalogx.Load(appCfg.CatalogPath)
	if err != nil {
		// A broken catalog file must not block startup; searches against an
		// empty catalog simply return no results.
		log.Warn().Err(err).Str("path", appCfg.CatalogPath).Msg("catalog load failed, starting with empty catalog")
		store = catalogx.Empty()
	}
	scorer := searchx.NewScorer(store)

	ratesCfg := configx.MustNew[currencyx.Config]("OPENEXCHANGERATES")
	converter, err := currencyx.New(*ratesCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize currency converter")
	}

	dispatcher := toolx.NewDispatcher(scorer, converter)

	orchestrator, err := orchestratorx.New(&openaiClient.Chat.Completions, dispatcher, orchestratorx.Config{
		Model: openaiCfg.Model,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize orchestrator")
	}

	app := serverx.New(serverx.NewChatbotController(orchestrator))
	if err := serverx.Listen(app, appCfg.ListenAddr); err != nil {
		log.Fatal().Err(err).Msg("http server stopped")
	}
}
