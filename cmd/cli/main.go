package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/marcelsud/leadhub/config"
	"github.com/marcelsud/leadhub/delivery"
	"github.com/marcelsud/leadhub/internal/logger"
	"github.com/marcelsud/leadhub/internal/storage"
	"github.com/marcelsud/leadhub/lead"
	"github.com/marcelsud/leadhub/webhook"
)

/*
 * cli creates one lead and waits until every webhook chain it started has settled,
 * then prints the delivery log rows of that lead.
 *
 *   go run ./cmd/cli -phone +5511999990000 -source cli -name "Ana"
 */

func main() {
	phone := flag.String("phone", "", "lead phone (required)")
	source := flag.String("source", "cli", "lead source")
	name := flag.String("name", "", "lead name")
	email := flag.String("email", "", "lead email")
	tags := flag.String("tags", "", "comma separated tags")
	flag.Parse()

	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	log := logger.New(logger.Options{
		ServiceName: "leadhub-cli",
		Level:       logger.ParseLevel(cfg.LogLevel),
		Format:      "console",
	})

	ctx := context.Background()
	stores, err := storage.Open(ctx, cfg, log)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer stores.Close(ctx)

	dispatcher := delivery.NewDispatcher(stores.Webhooks, stores.Webhooks, delivery.Config{
		MaxAttempts:    cfg.WebhookMaxAttempts,
		Timeout:        cfg.WebhookTimeout(),
		UserAgent:      cfg.WebhookUserAgent,
		MaxConcurrency: cfg.GetWebhookMaxConcurrency(),
	}, log)
	s := lead.NewService(stores.Leads, dispatcher)

	var tagList []string
	if *tags != "" {
		tagList = strings.Split(*tags, ",")
	}
	l, err := s.Create(ctx, lead.CreateInput{
		Phone:  *phone,
		Source: *source,
		Name:   *name,
		Email:  *email,
		Tags:   tagList,
	})
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	fmt.Printf("lead %s created, delivering...\n", l.ID)

	start := time.Now()
	dispatcher.Wait()
	fmt.Printf("deliveries settled in %s\n", time.Since(start).Round(time.Millisecond))

	logs, err := webhook.NewService(stores.Webhooks).Logs(ctx, webhook.LogQuery{Limit: cfg.GetWebhookLogLimit()})
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	for i := len(logs) - 1; i >= 0; i-- {
		row := logs[i]
		if row.LeadID != l.ID {
			continue
		}
		status := "-"
		if row.HTTPStatus != nil {
			status = fmt.Sprint(*row.HTTPStatus)
		}
		fmt.Printf("%-8s %d/%d  %s  http=%s  %s\n",
			row.Status, row.Attempt, row.MaxAttempts, row.URL, status, row.ErrorMessage)
	}
}
