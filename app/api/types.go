package api

import (
	"time"

	"github.com/lysyi3m/feed-reader/app/feed"
	"github.com/lysyi3m/feed-reader/app/reader"
	"github.com/lysyi3m/feed-reader/app/syndication"
)

type GeneratorInterface interface {
	Run(name string, source *syndication.Feed, items []*feed.Item) (string, error)
}

var _ GeneratorInterface = (*feed.Generator)(nil)

type Handler struct {
	reader      *reader.Reader
	generator   GeneratorInterface
	configCache *feed.ConfigCache
	filterer    *feed.Filterer
}

// ItemResponse is the JSON form of a normalized item.
type ItemResponse struct {
	ID              *string    `json:"id"`
	Title           *string    `json:"title"`
	Content         *string    `json:"content"`
	Summary         *string    `json:"summary"`
	URI             *string    `json:"uri"`
	Images          []string   `json:"images"`
	Categories      []string   `json:"categories"`
	PublishDate     *time.Time `json:"publish_date"`
	LastUpdatedDate *time.Time `json:"last_updated_date"`
}

func NewItemResponse(item *feed.Item) ItemResponse {
	response := ItemResponse{
		ID:              item.ID,
		Title:           item.Title,
		Content:         item.Content,
		Summary:         item.Summary,
		Images:          make([]string, 0, len(item.Images)),
		Categories:      item.Categories,
		PublishDate:     item.PublishDate,
		LastUpdatedDate: item.LastUpdatedDate,
	}

	if item.URI != nil {
		uri := item.URI.String()
		response.URI = &uri
	}
	for _, image := range item.Images {
		response.Images = append(response.Images, image.String())
	}
	if response.Categories == nil {
		response.Categories = []string{}
	}

	return response
}

func NewItemResponses(items []*feed.Item) []ItemResponse {
	responses := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewItemResponse(item))
	}
	return responses
}
