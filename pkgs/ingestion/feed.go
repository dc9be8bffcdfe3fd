package ingestion

import (
	"fmt"
	"time"

	"github.com/WangWilly/tweetsim/pkgs/model"
	"github.com/tidwall/gjson"
)

// CREATED_AT_LAYOUT is the timestamp layout of the Twitter v1.1 feed.
const CREATED_AT_LAYOUT = "Mon Jan 02 15:04:05 -0700 2006"

type feedTweet struct {
	CreatedAt time.Time
	Lang      string
	Text      string
	FullText  string
}

// parseLine reads a feed object. Fields live under "document" in archived
// feeds and at the top level otherwise.
func parseLine(line string) (*feedTweet, error) {
	if !gjson.Valid(line) {
		return nil, ErrMalformedJSON
	}

	root := gjson.Parse(line)
	if !root.IsObject() {
		return nil, ErrMalformedJSON
	}
	if doc := root.Get("document"); doc.IsObject() {
		root = doc
	}

	fields := map[string]gjson.Result{}
	for _, name := range []string{"created_at", "lang", "text"} {
		v := root.Get(name)
		if !v.Exists() || v.Type != gjson.String {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, name)
		}
		fields[name] = v
	}

	createdAt, err := time.Parse(CREATED_AT_LAYOUT, fields["created_at"].String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTimestamp, err)
	}

	tweet := &feedTweet{
		CreatedAt: model.DateOf(createdAt),
		Lang:      fields["lang"].String(),
		Text:      fields["text"].String(),
	}

	tweet.FullText = tweet.Text
	if full := root.Get("full_text"); full.Type == gjson.String {
		tweet.FullText = full.String()
	}
	return tweet, nil
}
