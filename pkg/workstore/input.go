package workstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/cuemby/docpipeline/pkg/types"
)

// envelopeFile is the expected name of the envelope descriptor inside each
// input item directory.
const envelopeFile = "envelope.json"

// diskEnvelope mirrors types.Envelope for JSON decoding without pulling
// time-parsing concerns into the types package.
type diskEnvelope struct {
	Sender     string   `json:"sender"`
	Recipients []string `json:"recipients"`
	Subject    string   `json:"subject"`
	Date       string   `json:"date"`
	Body       string   `json:"body"`
}

// ScanInput enumerates input/ into a stable ordered list of WorkItems.
// Ordering is lexicographic by directory name, which is how the Launcher
// assigns the global slot used for range partitioning: the same scan on
// any host produces the same order since it depends only on path names,
// not on filesystem iteration order or timestamps.
func (s *Store) ScanInput() ([]types.WorkItem, error) {
	entries, err := os.ReadDir(s.inputDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("workstore: scan input: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	items := make([]types.WorkItem, 0, len(names))
	for i, name := range names {
		item, err := s.loadItem(name, i)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Store) loadItem(dirName string, slot int) (types.WorkItem, error) {
	dir := filepath.Join(s.inputDir(), dirName)
	sourcePath := dir

	data, err := os.ReadFile(filepath.Join(dir, envelopeFile))
	if err != nil {
		return types.WorkItem{}, fmt.Errorf("workstore: read envelope %s: %w", dir, err)
	}
	var de diskEnvelope
	if err := json.Unmarshal(data, &de); err != nil {
		return types.WorkItem{}, fmt.Errorf("workstore: parse envelope %s: %w", dir, err)
	}

	attachments, err := s.loadAttachments(dir)
	if err != nil {
		return types.WorkItem{}, err
	}

	env := types.Envelope{
		Sender:     de.Sender,
		Recipients: de.Recipients,
		Subject:    de.Subject,
		Body:       de.Body,
	}
	if de.Date != "" {
		if t, perr := parseEnvelopeDate(de.Date); perr == nil {
			env.Date = t
		}
	}

	return types.WorkItem{
		ItemID:      ItemID(sourcePath),
		Slot:        slot,
		SourcePath:  sourcePath,
		Envelope:    env,
		Attachments: attachments,
	}, nil
}

func (s *Store) loadAttachments(dir string) ([]types.Attachment, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("workstore: read item dir %s: %w", dir, err)
	}

	var attachments []types.Attachment
	for _, e := range entries {
		if e.IsDir() || e.Name() == envelopeFile {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("workstore: read attachment %s: %w", e.Name(), err)
		}
		attachments = append(attachments, types.Attachment{
			Filename: e.Name(),
			MIMEType: mimeByExt(e.Name()),
			Data:     data,
		})
	}
	return attachments, nil
}
