// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	articlestore "github.com/dalemusser/memberhub/internal/app/store/articles"
	communicationstore "github.com/dalemusser/memberhub/internal/app/store/communications"
	membershipstore "github.com/dalemusser/memberhub/internal/app/store/memberships"
	organizationstore "github.com/dalemusser/memberhub/internal/app/store/organizations"
	parameterstore "github.com/dalemusser/memberhub/internal/app/store/parameters"
	preferencestore "github.com/dalemusser/memberhub/internal/app/store/preferences"
	userstore "github.com/dalemusser/memberhub/internal/app/store/users"
	"github.com/dalemusser/memberhub/internal/app/system/delivery"
	"github.com/dalemusser/memberhub/internal/app/system/dispatch"
	"github.com/dalemusser/memberhub/internal/app/system/mailer"
	"github.com/dalemusser/memberhub/internal/app/system/recipients"
	"github.com/dalemusser/memberhub/internal/app/system/tasks"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// taskRunner is started in Startup and stopped in Shutdown. It lives at
// package level because the WAFFLE lifecycle hooks share no other state.
var taskRunner *tasks.Runner

// newDeliveryCoordinator assembles the full send pipeline: stores,
// recipient resolver, mailer, dispatcher, coordinator. Both the HTTP
// send endpoint and the scheduled sweep use the same assembly.
func newDeliveryCoordinator(db *mongo.Database, appCfg AppConfig, logger *zap.Logger) *delivery.Coordinator {
	comms := communicationstore.New(db)
	orgs := organizationstore.New(db)
	resolver := recipients.New(
		membershipstore.New(db),
		userstore.New(db),
		preferencestore.New(db),
		orgs,
		logger,
	)
	sender := mailer.New(appCfg.MailAPIURL, appCfg.MailAPIKey, logger)
	dispatcher := dispatch.New(sender, logger)
	return delivery.New(comms, orgs, resolver, dispatcher, logger)
}

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. MemberHub
// uses it to start the scheduled-task runner: the scheduled-send sweep, the
// article publish sweep, and the yearly membership chores.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MemberHubMongoDatabase

	comms := communicationstore.New(db)
	articles := articlestore.New(db)
	memberships := membershipstore.New(db)
	params := parameterstore.New(db)
	coordinator := newDeliveryCoordinator(db, appCfg, logger)

	runner := tasks.NewRunner(logger)
	jobs := []tasks.Job{
		tasks.CommunicationSendJob(comms, coordinator, logger),
		tasks.ArticlePublishJob(articles, logger),
		tasks.MembershipExpiryJob(memberships, logger),
		tasks.ParameterRolloverJob(params, logger),
		tasks.RenewalWindowJob(params, logger),
	}
	for _, job := range jobs {
		if err := runner.Register(job); err != nil {
			return err
		}
	}
	runner.Start()
	taskRunner = runner

	logger.Info("scheduled-task runner started", zap.Int("jobs", len(jobs)))
	return nil
}
