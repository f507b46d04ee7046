package entity

import "time"

// Validity is the tri-state outcome of the last fetch attempt on a SourceFeed,
// or the last translation attempt on a TranslatedFeed.
type Validity int

const (
	// ValidityUnknown means the feed has not been evaluated yet, or its parent
	// just pulled successfully and downstream status needs re-evaluation.
	ValidityUnknown Validity = iota
	ValidityTrue
	ValidityFalse
)

// DisplayMode controls how translated and original text are composed for display.
type DisplayMode int

const (
	// DisplayTranslationOnly shows only the translated text.
	DisplayTranslationOnly DisplayMode = iota
	// DisplayTranslationThenOriginal shows "translation || original".
	DisplayTranslationThenOriginal
	// DisplayOriginalThenTranslation shows "original || translation".
	DisplayOriginalThenTranslation
)

// SourceFeed is a subscription to an external RSS/Atom URL.
type SourceFeed struct {
	SID           string
	URL           string
	Name          string
	UpdatePeriod  int // minutes, >= 1
	ETag          string
	LastUpdated   *time.Time // the feed's own `updated` field
	LastPull      *time.Time // last attempted fetch
	Size          int64      // bytes of stored XML
	Valid         Validity
	MaxPosts      int
	TranslatorRef string
	SummaryRef    string
	SummaryDetail float64 // [0,1]
	Display       DisplayMode
	Quality       bool
	FetchArticle  bool
}

// TranslatedFeed is a (source, target language, options) triple producing an
// output artifact.
type TranslatedFeed struct {
	SID             string
	SourceSID       string
	TargetLanguage  string
	TranslateTitle  bool
	TranslateBody   bool
	Summary         bool
	Status          Validity
	Modified        *time.Time // matches parent's LastPull when last regenerated successfully
	Size            int64
	TotalTokens     int64
	TotalCharacters int64
}

// IsCurrent reports whether this translated feed's artifact is up to date with
// its parent source feed's last successful pull.
func (t *TranslatedFeed) IsCurrent(parentLastPull *time.Time) bool {
	if t.Modified == nil || parentLastPull == nil {
		return false
	}
	return t.Modified.Equal(*parentLastPull)
}

// NameNeedsAutoFill reports whether the stored name is a placeholder that
// should be replaced with the upstream feed's own title or subtitle.
func NameNeedsAutoFill(name string) bool {
	switch name {
	case "", "Loading", "Empty":
		return true
	default:
		return false
	}
}
