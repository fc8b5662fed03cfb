// Package azure implements the recognition, translation and synthesis
// adapters against Azure Cognitive Services. The relay core only sees the
// interfaces in internal/core; everything Azure-shaped stays here.
package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// Translator calls the Azure Translator v3 REST API.
// Stateless: one POST per utterance.
type Translator struct {
	Endpoint string
	Key      string
	Region   string
	Client   *http.Client
}

func NewTranslator(endpoint, key, region string) *Translator {
	return &Translator{
		Endpoint: endpoint,
		Key:      key,
		Region:   region,
		Client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type translateRequest struct {
	Text string `json:"text"`
}

type translateResponse struct {
	Translations []struct {
		Text string `json:"text"`
		To   string `json:"to"`
	} `json:"translations"`
}

// Translate translates text between base languages ("en" -> "es").
// An empty result is returned as-is; the caller decides whether that
// aborts its pipeline.
func (t *Translator) Translate(ctx context.Context, text, from, to string) (string, error) {
	body, err := json.Marshal([]translateRequest{{Text: text}})
	if err != nil {
		return "", fmt.Errorf("marshal translate request: %w", err)
	}

	q := url.Values{}
	q.Set("api-version", "3.0")
	q.Set("from", from)
	q.Set("to", to)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.Endpoint+"/translate?"+q.Encode(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build translate request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", t.Key)
	req.Header.Set("Ocp-Apim-Subscription-Region", t.Region)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-ClientTraceId", uuid.NewString())

	resp, err := t.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("translate status %d: %s", resp.StatusCode, detail)
	}

	var out []translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode translate response: %w", err)
	}
	if len(out) == 0 || len(out[0].Translations) == 0 {
		return "", nil
	}
	return out[0].Translations[0].Text, nil
}
