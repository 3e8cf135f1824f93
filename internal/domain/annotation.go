package domain

import "time"

// Thumbs is an explicit up/down preference. Empty means no preference set.
type Thumbs string

const (
	ThumbsNone Thumbs = ""
	ThumbsUp   Thumbs = "up"
	ThumbsDown Thumbs = "down"
)

// RadarScores grade a response on six 0-5 dimensions.
type RadarScores struct {
	Accuracy    int `json:"accuracy"`
	Relevance   int `json:"relevance"`
	Conciseness int `json:"conciseness"`
	Creativity  int `json:"creativity"`
	Format      int `json:"format"`
	Reasoning   int `json:"reasoning"`
}

// AnnotationTags is the fixed vocabulary offered for tagging responses.
var AnnotationTags = []string{
	"accurate",
	"creative",
	"helpful",
	"hallucination",
	"incomplete",
	"verbose",
	"concise",
	"off-topic",
}

// Annotation is the human quality assessment attached to an experiment.
// Rating 0 means unrated.
type Annotation struct {
	Rating    int          `json:"rating"`
	Thumbs    Thumbs       `json:"thumbs"`
	Tags      []string     `json:"tags"`
	Notes     string       `json:"notes"`
	CreatedAt int64        `json:"createdAt"`
	Radar     *RadarScores `json:"radar,omitempty"`
}

// AnnotationPatch is a partial annotation update. Nil fields keep the
// prior value; CreatedAt is always refreshed on merge.
type AnnotationPatch struct {
	Rating *int         `json:"rating,omitempty"`
	Thumbs *Thumbs      `json:"thumbs,omitempty"`
	Tags   *[]string    `json:"tags,omitempty"`
	Notes  *string      `json:"notes,omitempty"`
	Radar  *RadarScores `json:"radar,omitempty"`
}

// Merge applies a patch to an existing annotation (which may be nil) and
// returns the replacement annotation.
func (p AnnotationPatch) Merge(prev *Annotation) *Annotation {
	next := Annotation{Tags: []string{}}
	if prev != nil {
		next = *prev
	}
	if p.Rating != nil {
		next.Rating = *p.Rating
	}
	if p.Thumbs != nil {
		next.Thumbs = *p.Thumbs
	}
	if p.Tags != nil {
		next.Tags = append([]string{}, (*p.Tags)...)
	}
	if p.Notes != nil {
		next.Notes = *p.Notes
	}
	if p.Radar != nil {
		r := *p.Radar
		next.Radar = &r
	}
	next.CreatedAt = time.Now().UnixMilli()
	return &next
}

// Rated reports whether the annotation carries an explicit rating or thumbs.
func (a *Annotation) Rated() bool {
	return a != nil && (a.Rating > 0 || a.Thumbs != ThumbsNone)
}
