package dataset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/patternlab/puf-engine/pkg/models"
)

// Sink accepts the final pattern mapping.
type Sink interface {
	Write(patterns []models.Pattern) error
}

// FileSink writes the reference output format, one pattern per line:
//
//	itemA itemB ... : expectedSupport
type FileSink struct {
	Path string
}

func (s *FileSink) Write(patterns []models.Pattern) error {
	f, err := os.Create(s.Path)
	if err != nil {
		return fmt.Errorf("open sink: %v", err)
	}
	if err := WritePatterns(f, patterns); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WritePatterns serializes patterns in their given order.
func WritePatterns(w io.Writer, patterns []models.Pattern) error {
	bw := bufio.NewWriter(w)
	for _, p := range patterns {
		line := strings.Join(p.Items, " ") + " : " + strconv.FormatFloat(p.Support, 'g', -1, 64)
		if _, err := fmt.Fprintln(bw, line); err != nil {
			return err
		}
	}
	return bw.Flush()
}
