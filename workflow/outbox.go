package workflow

import (
	"context"

	"bitbucket.org/mmdatafocus/inspect_backend/config"
)

// pubsubPublisher sends render requests through Google Cloud Pub/Sub.
type pubsubPublisher struct{}

func NewPubSubPublisher() PdfRequestPublisher {
	return pubsubPublisher{}
}

func (pubsubPublisher) PublishPdfRequest(ctx context.Context, msg config.PdfRequestMessage) (string, error) {
	return config.PublishPdfRequest(ctx, msg)
}
