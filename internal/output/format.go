package output

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/pankaj-dahiya-devops/encaudit/internal/models"
)

// Format selects how a Response is rendered on the CLI.
type Format string

const (
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
)

// ParseFormat validates a --report flag value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatJSON, FormatYAML, FormatTable:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported report format %q: want json, yaml or table", s)
	}
}

// Render writes resp to w in format f. JSON and YAML carry the full
// {status_code, body} envelope; the table shows the report or the error.
func Render(w io.Writer, resp models.Response, f Format, opts TableOptions) error {
	switch f {
	case FormatJSON:
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal response: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case FormatYAML:
		return renderYAML(w, resp)
	case FormatTable:
		if rep := resp.Report(); rep != nil {
			RenderTable(w, rep, opts)
			return nil
		}
		if auditErr := resp.AuditError(); auditErr != nil {
			_, err := fmt.Fprintf(w, "Audit failed at %s: %s\n",
				auditErr.Timestamp.Format("2006-01-02 15:04:05 UTC"), auditErr.Message)
			return err
		}
		return fmt.Errorf("response %d has no body", resp.StatusCode)
	default:
		return fmt.Errorf("unsupported report format %q", f)
	}
}

// renderYAML goes through the JSON encoding first so YAML keys match the
// snake_case JSON field names.
func renderYAML(w io.Writer, resp models.Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
