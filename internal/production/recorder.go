package production

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/comalice/dfsm/internal/core"
)

// Format selects the trace encoding.
type Format string

const (
	// JSONLines writes one JSON object per line.
	JSONLines Format = "json"
	// YAML writes one YAML document per snapshot.
	YAML Format = "yaml"
)

// ParseFormat accepts "json", "jsonl" and "yaml"/"yml".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json", "jsonl":
		return JSONLines, nil
	case "yaml", "yml":
		return YAML, nil
	}
	return "", errors.Errorf("unknown trace format %q", s)
}

// FormatFromPath picks YAML for .yaml/.yml files and JSON lines otherwise.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	}
	return JSONLines
}

type encoder interface {
	Encode(v any) error
}

// Recorder appends every observed snapshot to a trace.
// Thread-safe for concurrent access.
type Recorder struct {
	mu     sync.Mutex
	enc    encoder
	closer io.Closer
	format Format
	count  int
}

// NewRecorder writes snapshots to w in the given format.
func NewRecorder(w io.Writer, format Format) (*Recorder, error) {
	r := &Recorder{format: format}
	switch format {
	case JSONLines:
		r.enc = json.NewEncoder(w)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		r.enc = enc
		r.closer = enc
	default:
		return nil, errors.Errorf("unknown trace format %q", format)
	}
	return r, nil
}

// OpenRecorder creates (truncating) the trace file at path. An empty format
// is derived from the file extension.
func OpenRecorder(path string, format Format) (*Recorder, error) {
	if format == "" {
		format = FormatFromPath(path)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "mkdir %s", dir)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "create %s", path)
	}
	r, err := NewRecorder(f, format)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = chainCloser{r.closer, f}
	return r, nil
}

func (r *Recorder) OnStateEnter(s core.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enc.Encode(s); err != nil {
		return errors.Wrap(err, "record snapshot")
	}
	r.count++
	return nil
}

// Count returns the number of recorded snapshots.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Close flushes the encoder and closes the underlying file, if any.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

// ReadTrace decodes a trace written by a Recorder.
func ReadTrace(rd io.Reader, format Format) ([]core.Snapshot, error) {
	var out []core.Snapshot
	switch format {
	case JSONLines:
		dec := json.NewDecoder(rd)
		for {
			var s core.Snapshot
			if err := dec.Decode(&s); err == io.EOF {
				return out, nil
			} else if err != nil {
				return nil, errors.Wrap(err, "decode trace")
			}
			out = append(out, s)
		}
	case YAML:
		dec := yaml.NewDecoder(rd)
		for {
			var s core.Snapshot
			if err := dec.Decode(&s); err == io.EOF {
				return out, nil
			} else if err != nil {
				return nil, errors.Wrap(err, "decode trace")
			}
			out = append(out, s)
		}
	}
	return nil, errors.Errorf("unknown trace format %q", format)
}

// ReadTraceFile reads the trace at path in the format its extension implies.
func ReadTraceFile(path string) ([]core.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open trace")
	}
	defer f.Close()
	return ReadTrace(f, FormatFromPath(path))
}

type chainCloser []io.Closer

func (c chainCloser) Close() error {
	var errs *multierror.Error
	for _, cl := range c {
		if cl == nil {
			continue
		}
		if err := cl.Close(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}
