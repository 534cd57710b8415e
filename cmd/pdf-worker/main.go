package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"cloud.google.com/go/pubsub"
	"github.com/sirupsen/logrus"

	"bitbucket.org/mmdatafocus/inspect_backend/config"
	"bitbucket.org/mmdatafocus/inspect_backend/store"
)

// The worker drains PDF render requests published on finalize: load the
// document, hand it to the render function, write the outcome back. Clients
// watching the document see the url (or the error) land without polling the
// worker itself.
func main() {
	logger := config.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	docs := store.NewMySQLDocumentStore(config.GetDB(), config.GetRedisDB())

	rpc, err := store.NewHTTPProcedureClient()
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "functions"}).Panic(err.Error())
	}

	client, err := config.GetClient(ctx)
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "pubsub"}).Panic(err.Error())
	}

	topicName := os.Getenv("PDF_REQUEST_TOPIC")
	if topicName == "" {
		logger.WithFields(logrus.Fields{"field": "pubsub"}).Panic("PDF_REQUEST_TOPIC is required")
	}
	subName := os.Getenv("PDF_REQUEST_SUBSCRIPTION")
	if subName == "" {
		subName = topicName + "-worker"
	}

	topic, err := config.CreateTopicIfNotExists(client, topicName)
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "pubsub"}).Panic(err.Error())
	}
	sub, err := config.CreateSubscriptionIfNotExists(client, subName, topic)
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "pubsub"}).Panic(err.Error())
	}

	logger.WithFields(logrus.Fields{
		"info": "pdf worker ready",
	}).Info("consuming ", subName)

	w := &worker{docs: docs, rpc: rpc, logger: logger}
	err = sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		var msg config.PdfRequestMessage
		if err := json.Unmarshal(m.Data, &msg); err != nil {
			config.LogError(logger, "main.go", "Receive", "Unmarshal", string(m.Data), err)
			m.Ack()
			return
		}
		if err := w.handle(ctx, msg); err != nil {
			config.LogError(logger, "main.go", "Receive", "handle", msg, err)
			m.Nack()
			return
		}
		m.Ack()
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.WithFields(logrus.Fields{"field": "pubsub"}).Error("receive stopped: " + err.Error())
	}
}

type worker struct {
	docs   store.DocumentStore
	rpc    store.RemoteProcedure
	logger *logrus.Logger
}

func (w *worker) handle(ctx context.Context, msg config.PdfRequestMessage) error {
	path := store.DocPath(msg.Collection, msg.EntityId)

	doc, err := w.docs.Read(ctx, path)
	if err != nil {
		if errors.Is(err, store.ErrDocumentNotFound) {
			// The record is gone; nothing left to render.
			return nil
		}
		return err
	}
	if url, ok := doc["pdfDownloadUrl"].(string); ok && url != "" {
		// Redelivered message for a finished render.
		return nil
	}

	raw, err := w.rpc.Call(ctx, "renderReportPdf", map[string]any{
		"collection": msg.Collection,
		"entityId":   msg.EntityId,
		"tenantId":   msg.TenantId,
		"document":   doc,
	})
	if err != nil {
		var procErr *store.ProcedureError
		if errors.As(err, &procErr) {
			// A validation-style rejection is terminal; record it on the
			// document instead of redelivering forever.
			doc["pdfGenerationError"] = procErr.Message
			return w.docs.Write(ctx, path, doc)
		}
		return err
	}

	var result struct {
		DownloadUrl string `json:"downloadUrl"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	if result.DownloadUrl == "" {
		doc["pdfGenerationError"] = "render backend returned no download url"
		return w.docs.Write(ctx, path, doc)
	}

	doc["pdfDownloadUrl"] = result.DownloadUrl
	delete(doc, "pdfGenerationError")
	return w.docs.Write(ctx, path, doc)
}
