package analytics

import (
	"fmt"
	"sort"

	"github.com/ocx/judgeflow/internal/fingerprint"
	"github.com/ocx/judgeflow/internal/store"
)

// DuplicateStore is the slice of the store duplicate lookup needs.
type DuplicateStore interface {
	GetSubmission(id string) (*store.SubmissionRow, error)
	SubmissionsInBucket(bucket uint16) ([]store.SubmissionRow, error)
}

// Duplicate is one near-duplicate candidate with its Hamming distance to
// the probed submission.
type Duplicate struct {
	SubmissionID string `json:"submission_id"`
	QueueID      string `json:"queue_id"`
	Distance     int    `json:"distance"`
}

// NearDuplicates finds submissions whose answer fingerprints sit within
// maxDistance bits of the given submission's. The simhash bucket serves as
// the coarse candidate pre-filter; a submission without a fingerprint has
// no duplicates.
func NearDuplicates(s DuplicateStore, submissionID string, maxDistance int) ([]Duplicate, error) {
	probe, err := s.GetSubmission(submissionID)
	if err != nil {
		return nil, fmt.Errorf("near duplicates: %w", err)
	}
	if probe.AnswerSimhash == nil {
		return []Duplicate{}, nil
	}

	bucket := fingerprint.Bucket(*probe.AnswerSimhash)
	if probe.SimhashBucket != nil {
		bucket = *probe.SimhashBucket
	}

	candidates, err := s.SubmissionsInBucket(bucket)
	if err != nil {
		return nil, fmt.Errorf("near duplicates: %w", err)
	}

	matches := []Duplicate{}
	for _, candidate := range candidates {
		if candidate.ID == submissionID || candidate.AnswerSimhash == nil {
			continue
		}
		distance := fingerprint.HammingDistance(*probe.AnswerSimhash, *candidate.AnswerSimhash)
		if distance <= maxDistance {
			matches = append(matches, Duplicate{
				SubmissionID: candidate.ID,
				QueueID:      candidate.QueueID,
				Distance:     distance,
			})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].SubmissionID < matches[j].SubmissionID
	})
	return matches, nil
}
