package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"

	"github.com/showcasekit/showcase-extractor/internal/common"
	"github.com/showcasekit/showcase-extractor/internal/llm"
)

// ExtractFields implements llm.FieldExtractor against the Gemini API. The
// document goes up as an inline blob next to the fixed instruction text, and
// the model is constrained to structured JSON output matching the team
// schema. One attempt per call; retry policy, if any, belongs to the caller.
func (c *Client) ExtractFields(ctx context.Context, req llm.ExtractRequest) (llm.TeamFields, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"mime_type", req.MIMEType,
		"payload_bytes", len(req.Data),
		"filename_hint", req.FilenameHint,
	)

	model := c.ai.GenerativeModel(c.cfg.Model)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = responseSchema()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := model.GenerateContent(ctx,
		genai.Blob{MIMEType: req.MIMEType, Data: req.Data},
		genai.Text(llm.BuildExtractionPrompt(req.FilenameHint)),
	)
	if err != nil {
		c.log.Error("llm.extract.call_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.TeamFields{}, nil, extractionError(fmt.Sprintf("gemini generate: %v", err))
	}

	text := responseText(resp)
	if text == "" {
		c.log.Error("llm.extract.empty_response",
			"req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.TeamFields{}, nil, extractionError("no data returned from gemini")
	}
	rawContent := []byte(text)

	cleaned, _, sErr := llm.SanitizeTeamJSON(rawContent, c.log)
	if sErr != nil {
		c.log.Error("llm.extract.malformed_response",
			"req_id", rid, "error", sErr, "raw_bytes", len(rawContent),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.TeamFields{}, rawContent, extractionError(fmt.Sprintf("malformed response: %v", sErr))
	}

	schema := llm.BuildTeamJSONSchema()
	if err := llm.ValidateJSONAgainstSchema(schema, cleaned); err != nil {
		c.log.Error("llm.extract.schema_validation_failed",
			"req_id", rid, "error", err, "content", string(cleaned),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.TeamFields{}, rawContent, extractionError(fmt.Sprintf("schema validation failed: %v", err))
	}

	var out llm.TeamFields
	if err := json.Unmarshal(cleaned, &out); err != nil {
		c.log.Error("llm.extract.unmarshal_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.TeamFields{}, rawContent, extractionError(fmt.Sprintf("unmarshal fields: %v", err))
	}

	c.log.Info("llm.extract.ok",
		"req_id", rid,
		"team", out.TeamName,
		"competition", out.CompetitionName,
		"award", out.AwardLevel,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, cleaned, nil
}

// responseSchema renders the declarative field table into Gemini's schema
// representation.
func responseSchema() *genai.Schema {
	props := make(map[string]*genai.Schema)
	for _, name := range llm.FieldNames() {
		spec, _ := llm.Spec(name)
		props[name] = &genai.Schema{
			Type:        genai.TypeString,
			Description: spec.Description,
		}
	}
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
		Required:   llm.RequiredFields(),
	}
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return strings.TrimSpace(b.String())
}

func extractionError(msg string) error {
	return common.NewAppError("EXTRACTION_FAILED", msg, common.ErrExtractionFailure)
}

var _ llm.FieldExtractor = (*Client)(nil)
