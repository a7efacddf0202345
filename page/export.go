package page

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/golang/glog"
)


// An html export. Json exports are shown in the store as `DisplayExportObjectResult` instead.
type ExportResult struct {
	Html     []byte
	Filename string
}


// Fetches `/export`. While the request is in flight the store has `ExportLoading` set.
// Failures are shown in the store as `DisplayError` and also returned.
func (self *Session) Export(ctx context.Context) (result *ExportResult, returnErr error) {
	if err := self.ApplyLocal(ctx, &ExportLoading{ExportLoading: true}); err != nil {
		return nil, err
	}
	defer func() {
		if err := self.ApplyLocal(context.Background(), &ExportLoading{ExportLoading: false}); err != nil {
			glog.V(LogLevelLifecycle).Infof("[s]%s export loading not cleared = %s\n", self.instanceId, err)
		}
	}()

	var response *ExportResponse
	var err error
	if glog.V(LogLevelTrace) {
		response, err = TraceWithReturnError(fmt.Sprintf("[s]export %s", self.api.ApiUrl()), func() (*ExportResponse, error) {
			return self.api.Export(ctx)
		})
	} else {
		response, err = self.api.Export(ctx)
	}
	if err != nil {
		self.ApplyLocal(
			ctx,
			&DisplayOptions{DisplayOptions: false},
			&DisplayError{Error: fmt.Sprintf("Export failed: %s", err)},
		)
		return nil, fmt.Errorf("export: %w", err)
	}

	if !response.Ok() {
		message := exportErrorMessage(response)
		self.ApplyLocal(
			ctx,
			&DisplayOptions{DisplayOptions: false},
			&DisplayError{Error: fmt.Sprintf("Export failed: %s", message)},
		)
		return nil, fmt.Errorf("export: %d %s", response.StatusCode, message)
	}

	if response.IsJson() {
		var object map[string]any
		if err := json.Unmarshal(response.Body, &object); err != nil {
			self.ApplyLocal(
				ctx,
				&DisplayError{Error: fmt.Sprintf("Export failed: %s", err)},
			)
			return nil, fmt.Errorf("export: %w", err)
		}
		if err := self.ApplyLocal(ctx, &DisplayExportObjectResult{Result: object}); err != nil {
			return nil, err
		}
		return nil, nil
	}

	return &ExportResult{
		Html:     response.Body,
		Filename: ExportFilename(self.Store().Title()),
	}, nil
}

func ExportFilename(title string) string {
	if title == "" {
		title = "export"
	}
	return fmt.Sprintf("%s.html", title)
}

// the `error` field of a json error body, otherwise the body
func exportErrorMessage(response *ExportResponse) string {
	if response.IsJson() {
		var body map[string]any
		if err := json.Unmarshal(response.Body, &body); err == nil {
			if message, ok := body["error"].(string); ok {
				return message
			}
		}
	}
	message := strings.TrimSpace(string(response.Body))
	if message == "" {
		return fmt.Sprintf("status %d", response.StatusCode)
	}
	return message
}
