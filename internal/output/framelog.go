package output

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"

	"minibot-bridge-go/internal/codec"
)

const frameLogMagic = "MBFRAME1"

// maxRecordBytes bounds a single record allocation when reading. Far
// above any real observation (a 1920x1080x3 uint8 frame is ~6 MiB) but
// small enough that a corrupt size prefix cannot demand gigabytes.
const maxRecordBytes = 64 << 20

// FrameRecord is one logged observation: the decoded frame plus the
// receive timestamp and the step index it followed.
type FrameRecord struct {
	UnixNano int64  `cbor:"unix_nano"`
	Step     int    `cbor:"step"`
	Dtype    string `cbor:"dtype"`
	Shape    []int  `cbor:"shape"`
	Data     []byte `cbor:"data"`
}

func (r FrameRecord) Frame() *codec.Frame {
	return &codec.Frame{Dtype: r.Dtype, Shape: r.Shape, Data: r.Data}
}

// FrameLogWriter appends CBOR frame records to a magic-prefixed log
// file, one length-prefixed record per frame.
type FrameLogWriter struct {
	mu sync.Mutex
	f  *os.File
	w  *bufio.Writer
}

func NewFrameLogWriter(outputDir string) (*FrameLogWriter, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, err
	}
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(outputDir, fmt.Sprintf("%s_frames.bin", timestamp))
	f, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	w := bufio.NewWriterSize(f, 1024*1024)
	if _, err := w.WriteString(frameLogMagic); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &FrameLogWriter{f: f, w: w}, nil
}

func (l *FrameLogWriter) Record(step int, frame *codec.Frame) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.w == nil {
		return fmt.Errorf("frame log writer is closed")
	}
	payload, err := cbor.Marshal(FrameRecord{
		UnixNano: time.Now().UnixNano(),
		Step:     step,
		Dtype:    frame.Dtype,
		Shape:    frame.Shape,
		Data:     frame.Data,
	})
	if err != nil {
		return err
	}
	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(len(payload)))
	if _, err := l.w.Write(size[:]); err != nil {
		return err
	}
	if _, err := l.w.Write(payload); err != nil {
		return err
	}
	return l.w.Flush()
}

func (l *FrameLogWriter) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.w == nil {
		return nil
	}
	if err := l.w.Flush(); err != nil {
		_ = l.f.Close()
		l.w = nil
		return err
	}
	err := l.f.Close()
	l.w = nil
	return err
}

// ReadFrameLog streams records from a frame log, calling fn for each.
// fn returning false stops the read early.
func ReadFrameLog(r io.Reader, fn func(FrameRecord) bool) error {
	magic := make([]byte, len(frameLogMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return fmt.Errorf("read magic: %w", err)
	}
	if string(magic) != frameLogMagic {
		return fmt.Errorf("unexpected frame log magic %q", string(magic))
	}
	for {
		var size [4]byte
		if _, err := io.ReadFull(r, size[:]); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("read record size: %w", err)
		}
		recordSize := binary.LittleEndian.Uint32(size[:])
		if recordSize > maxRecordBytes {
			return fmt.Errorf("record size %d exceeds limit %d", recordSize, maxRecordBytes)
		}
		payload := make([]byte, recordSize)
		if _, err := io.ReadFull(r, payload); err != nil {
			return fmt.Errorf("read record: %w", err)
		}
		var record FrameRecord
		if err := cbor.Unmarshal(payload, &record); err != nil {
			return fmt.Errorf("decode record: %w", err)
		}
		if !fn(record) {
			return nil
		}
	}
}
