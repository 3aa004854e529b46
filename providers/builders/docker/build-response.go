package docker

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ahmetb/go-cursor"
	orderedmap "github.com/wk8/go-ordered-map"
)

const (
	LayerMessagePrefix = "\u2023"
	errorPrefix        = "[ERROR]"

	maxStreamLine = 1024 * 1024
)

// ResponseBodyStreamAuxMessage contains the ImageBuild's aux data from buildResponse
type ResponseBodyStreamAuxMessage struct {
	// ID is the image id once the build completes
	ID string `json:"ID"`
}

func (m *ResponseBodyStreamAuxMessage) String() string {
	if m.ID != "" {
		return fmt.Sprintf(" %s %s", LayerMessagePrefix, m.ID)
	}
	return ""
}

type ResponseBodyStreamErrorDetailMessage struct {
	Message string `json:"message"`
}

func (m *ResponseBodyStreamErrorDetailMessage) String() string {
	if m.Message != "" {
		return fmt.Sprintf("%s %s", errorPrefix, m.Message)
	}

	return ""
}

// ResponseBodyStreamMessage contains the ImageBuild's body data from buildResponse
type ResponseBodyStreamMessage struct {
	Aux         *ResponseBodyStreamAuxMessage         `json:"aux"`
	ErrorDetail *ResponseBodyStreamErrorDetailMessage `json:"errorDetail"`
	Error       string                                `json:"error"`
	// ID identify layer
	ID       string `json:"id"`
	Progress string `json:"progress"`
	Status   string `json:"status"`
	Stream   string `json:"stream"`
}

func (m *ResponseBodyStreamMessage) String() string {
	if m.Status != "" {
		str := fmt.Sprintf("%s ", LayerMessagePrefix)
		if m.ID != "" {
			str = fmt.Sprintf("%s %s: ", str, strings.TrimSpace(m.ID))
		}
		str = fmt.Sprintf("%s %s ", str, strings.TrimSuffix(m.Status, "\n"))
		return str
	}
	if m.Stream != "" {
		return strings.TrimSpace(m.Stream)
	}
	if m.Aux != nil {
		return m.Aux.String()
	}
	if m.ErrorDetail != nil {
		return m.ErrorDetail.String()
	}
	if m.Error != "" {
		return fmt.Sprintf("%s %s", errorPrefix, m.Error)
	}

	return ""
}

func (m *ResponseBodyStreamMessage) ProgressString() string {
	if m.Progress != "" {
		return strings.TrimSpace(m.Progress)
	}
	return ""
}

// errorMessage returns the failure reported by this message, if any.
func (m *ResponseBodyStreamMessage) errorMessage() string {
	if m.ErrorDetail != nil && m.ErrorDetail.Message != "" {
		return m.ErrorDetail.Message
	}
	return m.Error
}

type BuildOutput struct {
	Rendered []byte
	ImageID  string
	// ErrorMessage is the first error the engine reported in the stream
	ErrorMessage string
}

// ConvertOutput renders the engine's json message stream. Progress lines sharing
// a layer id are redrawn in place.
func ConvertOutput(imageOutput io.Reader) (*BuildOutput, error) {
	out := new(BuildOutput)
	writer := new(bytes.Buffer)
	scanner := bufio.NewScanner(imageOutput)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStreamLine)
	lineBefore := ""
	lines := orderedmap.New()
	numLayers := 0

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		streamMessage := &ResponseBodyStreamMessage{}
		if err := json.Unmarshal(line, streamMessage); err != nil {
			return nil, err
		}

		if streamMessage.Aux != nil && streamMessage.Aux.ID != "" {
			out.ImageID = streamMessage.Aux.ID
		}
		if msg := streamMessage.errorMessage(); msg != "" && out.ErrorMessage == "" {
			out.ErrorMessage = msg
		}

		streamMessageStr := streamMessage.String()
		if streamMessageStr != lineBefore && streamMessageStr != "" {
			if streamMessage.ID != "" {
				// override layer outputs on pull messages
				fmt.Fprintf(writer, "%s%s\n", cursor.MoveUp(numLayers+1), cursor.ClearEntireLine())

				lines.Set(streamMessage.ID, fmt.Sprint(streamMessageStr, streamMessage.ProgressString()))
				for line := lines.Oldest(); line != nil; line = line.Next() {
					fmt.Fprintf(writer, "%s%s\n", line.Value, cursor.ClearLineRight())
				}
				numLayers = lines.Len()
			} else {
				fmt.Fprintf(writer, "%s%s\n", streamMessageStr, streamMessage.ProgressString())
				lines = orderedmap.New()
				numLayers = 0
			}
		}

		lineBefore = streamMessageStr
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	out.Rendered = writer.Bytes()
	return out, nil
}
