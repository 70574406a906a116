package fx

import (
	"buywise/config"
	"buywise/internal/app/inngest"
	"buywise/internal/app/inngest/check"
	pkginngest "buywise/internal/pkg/inngest"
	"buywise/internal/router"

	"github.com/inngest/inngestgo"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Options(
	fx.Provide(
		pkginngest.NewInngestClient,
		check.NewCheckFunction,
		router.AsRoute(inngest.NewInngestHandler),
	),
	fx.Invoke(registerFunctions),
)

func registerFunctions(
	cfg *config.Config,
	client inngestgo.Client,
	checkFunc *check.CheckFunction,
	logger *zap.SugaredLogger,
) error {
	if !pkginngest.Enabled(cfg) {
		logger.Infow("inngest_disabled", "reason", "missing INNGEST_APP_ID")
		return nil
	}

	_, err := inngestgo.CreateFunction(
		client,
		inngestgo.FunctionOpts{
			ID:      check.FunctionID,
			Retries: inngestgo.IntPtr(2),
		},
		inngestgo.EventTrigger(check.CheckRequestedEventName, nil),
		checkFunc.Handle,
	)
	if err != nil {
		logger.Errorw("inngest_function_create_failed", "function", check.FunctionID, "err", err)
		return err
	}

	logger.Infow("inngest_enabled",
		"path", pkginngest.ServePath(cfg),
		"event", check.CheckRequestedEventName,
	)
	return nil
}
