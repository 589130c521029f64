// Package detector holds the fixed set of matchers that recognize sensitive
// data and spam signals in message text.
//
// Every detector is a pure function of its input: patterns are compiled once
// at package init and never mutated, so a Set may be shared by any number of
// goroutines without locking.
package detector

import (
	"regexp"
	"sort"

	"inspection-service/internal/models"
)

// Detector recognizes one category of content.
type Detector interface {
	Name() string
	Kind() models.Kind
	Category() models.Category
	Detect(text string) []models.Detection
}

// pattern is one regular expression of a detector. When the expression has a
// capture group, the first group is the reported value and the rest of the
// match is context (e.g. "password:").
type pattern struct {
	re          *regexp.Regexp
	description string
	confidence  float64
	validate    func(value string) bool
}

type patternDetector struct {
	name     string
	kind     models.Kind
	category models.Category
	patterns []pattern
	adjust   func(d *models.Detection)
}

func (p *patternDetector) Name() string              { return p.name }
func (p *patternDetector) Kind() models.Kind         { return p.kind }
func (p *patternDetector) Category() models.Category { return p.category }

func (p *patternDetector) Detect(text string) []models.Detection {
	var found []candidate
	for i, pt := range p.patterns {
		for _, loc := range pt.re.FindAllStringSubmatchIndex(text, -1) {
			start, end := loc[0], loc[1]
			if len(loc) >= 4 && loc[2] >= 0 {
				start, end = loc[2], loc[3]
			}
			if end <= start {
				continue
			}
			value := text[start:end]
			if pt.validate != nil && !pt.validate(value) {
				continue
			}
			d := models.Detection{
				Category:    p.category,
				Description: pt.description,
				Sensitivity: SensitivityOf(p.category),
				Span:        models.Span{Start: start, End: end},
				RawValue:    value,
				Confidence:  pt.confidence,
			}
			if p.adjust != nil {
				p.adjust(&d)
			}
			found = append(found, candidate{detection: d, order: i})
		}
	}
	return resolve(found)
}

// candidate is a match tagged with its declaration order, used to break ties.
type candidate struct {
	detection models.Detection
	order     int
}

// resolve drops overlapping matches. The longer span wins; on equal length
// the earlier-declared matcher wins, then the earlier start. Survivors are
// returned in text order.
func resolve(cands []candidate) []models.Detection {
	if len(cands) == 0 {
		return nil
	}

	ranked := make([]candidate, len(cands))
	copy(ranked, cands)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.detection.Span.Len() != b.detection.Span.Len() {
			return a.detection.Span.Len() > b.detection.Span.Len()
		}
		if a.order != b.order {
			return a.order < b.order
		}
		return a.detection.Span.Start < b.detection.Span.Start
	})

	kept := make([]candidate, 0, len(ranked))
	for _, c := range ranked {
		overlaps := false
		for _, k := range kept {
			if c.detection.Span.Overlaps(k.detection.Span) {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, c)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].detection.Span.Start != kept[j].detection.Span.Start {
			return kept[i].detection.Span.Start < kept[j].detection.Span.Start
		}
		return kept[i].order < kept[j].order
	})

	out := make([]models.Detection, len(kept))
	for i, k := range kept {
		out[i] = k.detection
	}
	return out
}

// Set is the explicit, ordered list of detectors. Declaration order is the
// tie-break when two detectors claim spans of equal length.
type Set struct {
	detectors []Detector
}

// NewSet returns the full detector list: DLP detectors first, then spam.
func NewSet() *Set {
	detectors := make([]Detector, 0, 20)
	detectors = append(detectors, dlpDetectors()...)
	detectors = append(detectors, spamDetectors()...)
	return &Set{detectors: detectors}
}

// Detectors returns the detectors in declaration order.
func (s *Set) Detectors() []Detector {
	out := make([]Detector, len(s.detectors))
	copy(out, s.detectors)
	return out
}

// Detect runs every detector of the given kind over text and returns the
// de-duplicated detections in the order they appear in the text.
func (s *Set) Detect(text string, kind models.Kind) []models.Detection {
	if text == "" {
		return nil
	}

	var cands []candidate
	for i, d := range s.detectors {
		if d.Kind() != kind {
			continue
		}
		for _, m := range d.Detect(text) {
			cands = append(cands, candidate{detection: m, order: i})
		}
	}
	return resolve(cands)
}
