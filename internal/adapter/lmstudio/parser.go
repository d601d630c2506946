package lmstudio

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/thushan/lmsgate/internal/core/constants"
	"github.com/thushan/lmsgate/internal/core/domain"
)

// sizeFields are checked in order, newer LM Studio builds report size_bytes
var sizeFields = []string{"size_bytes", "size"}

// parseModelList projects the OpenAI style listing LM Studio returns
// ({"object":"list","data":[...]}) onto descriptors, one per record and in
// upstream order. A missing or null data field is an empty listing.
func parseModelList(body []byte) ([]domain.ModelDescriptor, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("invalid JSON in models response")
	}

	data := gjson.GetBytes(body, "data")
	if !data.Exists() || data.Type == gjson.Null {
		return []domain.ModelDescriptor{}, nil
	}
	if !data.IsArray() {
		return nil, fmt.Errorf("unexpected models data of type %s", data.Type)
	}

	records := data.Array()
	models := make([]domain.ModelDescriptor, 0, len(records))
	for i, record := range records {
		if !record.IsObject() {
			return nil, fmt.Errorf("model record %d is not an object", i)
		}
		models = append(models, toDescriptor(record))
	}
	return models, nil
}

func toDescriptor(record gjson.Result) domain.ModelDescriptor {
	id := record.Get("id").String()

	// LM Studio reports everything it lists as available, there is no
	// per record load state to carry over
	desc := domain.ModelDescriptor{
		ID:       id,
		Name:     id,
		Loaded:   true,
		Provider: constants.ProviderTypeLMStudio,
	}

	if root := record.Get("root"); root.Type == gjson.String && root.Str != "" {
		path := root.Str
		desc.Path = &path
	}

	for _, field := range sizeFields {
		if v := record.Get(field); v.Type == gjson.Number {
			size := v.Int()
			desc.Size = &size
			break
		}
	}

	return desc
}
