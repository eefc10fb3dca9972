// Package transcript reads session transcripts and recovers the content each
// touched file had before the session first modified it.
package transcript

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fakeyudi/statusline/internal/logging"
)

// Entry is one line of a transcript. Only the tool-use result matters here.
type Entry struct {
	ToolUseResult *ToolUseResult `json:"toolUseResult,omitempty"`
}

// ToolUseResult describes the outcome of one file-affecting tool call.
type ToolUseResult struct {
	FilePath     string  `json:"filePath,omitempty"`
	OriginalFile *string `json:"originalFile,omitempty"`
	Content      *string `json:"content,omitempty"`
}

// UnmarshalJSON decodes an entry, matching keys case-sensitively.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	e.ToolUseResult = nil
	raw, ok := fields["toolUseResult"]
	if !ok {
		return nil
	}
	return json.Unmarshal(raw, &e.ToolUseResult)
}

// UnmarshalJSON decodes a tool-use result, matching keys case-sensitively.
// A null payload is the same as an absent one.
func (r *ToolUseResult) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*r = ToolUseResult{}
	var path *string
	if err := exactField(fields, "filePath", &path); err != nil {
		return err
	}
	if path != nil {
		r.FilePath = *path
	}
	if err := exactField(fields, "originalFile", &r.OriginalFile); err != nil {
		return err
	}
	return exactField(fields, "content", &r.Content)
}

func exactField(fields map[string]json.RawMessage, key string, dst **string) error {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

// Originals maps a file path to the earliest recorded content for that path.
type Originals map[string]string

// tracked reports whether r names a file and carries at least one payload.
func (r *ToolUseResult) tracked() bool {
	return r != nil && r.FilePath != "" && (r.OriginalFile != nil || r.Content != nil)
}

// Reader builds Originals from transcript files.
type Reader struct {
	Logger logging.Logger // if nil, nothing is logged
}

// ReadFile opens the transcript at path and returns its Originals.
// A transcript that cannot be opened yields an empty map.
func (rd *Reader) ReadFile(path string) Originals {
	f, err := os.Open(path)
	if err != nil {
		rd.logger().Debug("transcript unavailable", "path", path, "err", err)
		return Originals{}
	}
	defer f.Close()
	return rd.Read(f)
}

// Read scans r line by line. Lines that are not valid JSON, or that carry no
// usable tool-use result, are skipped. For each path the first original seen
// is kept; later entries for the same path never replace it.
func (rd *Reader) Read(r io.Reader) Originals {
	originals := Originals{}
	log := rd.logger()

	// bufio.Reader rather than Scanner: transcript lines embed whole files
	// and have no useful upper bound.
	br := bufio.NewReader(r)
	lineNo := 0
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			lineNo++
			originals.add(bytes.TrimSpace(line), lineNo, log)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Warn("transcript read aborted", "line", lineNo, "err", err)
			}
			break
		}
	}
	return originals
}

func (o Originals) add(line []byte, lineNo int, log logging.Logger) {
	if len(line) == 0 {
		return
	}
	var entry Entry
	if err := json.Unmarshal(line, &entry); err != nil {
		log.Debug("skipping unparseable transcript line", "line", lineNo, "err", err)
		return
	}
	res := entry.ToolUseResult
	if !res.tracked() {
		return
	}
	if _, seen := o[res.FilePath]; seen {
		return
	}
	original := ""
	if res.OriginalFile != nil {
		original = *res.OriginalFile
	}
	o[res.FilePath] = original
}

func (rd *Reader) logger() logging.Logger {
	if rd == nil || rd.Logger == nil {
		return logging.Nop()
	}
	return rd.Logger
}
