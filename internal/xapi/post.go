package xapi

import (
	"fmt"
	"time"
)

// Post is a remote post mapped to flat fields: author metadata joined in
// from the response includes, entity lists flattened to plain strings.
type Post struct {
	ID             string    `json:"id"`
	Text           string    `json:"text"`
	AuthorID       string    `json:"author_id"`
	AuthorUsername string    `json:"author_username"`
	AuthorName     string    `json:"author_name"`
	PostURL        string    `json:"post_url"`
	CreatedAt      time.Time `json:"created_at"`
	ConversationID string    `json:"conversation_id"`

	Likes         int `json:"likes"`
	Retweets      int `json:"retweets"`
	Replies       int `json:"replies"`
	Quotes        int `json:"quotes"`
	Impressions   int `json:"impressions"`
	BookmarkCount int `json:"bookmark_count"`

	URLs     []string `json:"urls"`
	Mentions []string `json:"mentions"`
	Hashtags []string `json:"hashtags"`
}

// rawPost is the wire shape of a post in timeline responses.
type rawPost struct {
	ID             string `json:"id"`
	Text           string `json:"text"`
	AuthorID       string `json:"author_id"`
	CreatedAt      string `json:"created_at"`
	ConversationID string `json:"conversation_id"`
	PublicMetrics  struct {
		LikeCount       int `json:"like_count"`
		RetweetCount    int `json:"retweet_count"`
		ReplyCount      int `json:"reply_count"`
		QuoteCount      int `json:"quote_count"`
		ImpressionCount int `json:"impression_count"`
		BookmarkCount   int `json:"bookmark_count"`
	} `json:"public_metrics"`
	Entities struct {
		URLs []struct {
			ExpandedURL string `json:"expanded_url"`
		} `json:"urls"`
		Mentions []struct {
			Username string `json:"username"`
		} `json:"mentions"`
		Hashtags []struct {
			Tag string `json:"tag"`
		} `json:"hashtags"`
	} `json:"entities"`
}

// mapPosts flattens raw posts against the expanded users list. Posts whose
// author is missing from the includes get placeholder author metadata
// rather than being dropped.
func mapPosts(raw []rawPost, users []User) []*Post {
	byID := make(map[string]User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	posts := make([]*Post, 0, len(raw))
	for _, r := range raw {
		user := byID[r.AuthorID]
		username := user.Username
		if username == "" {
			username = "unknown"
		}
		name := user.Name
		if name == "" {
			name = "Unknown"
		}

		p := &Post{
			ID:             r.ID,
			Text:           r.Text,
			AuthorID:       r.AuthorID,
			AuthorUsername: username,
			AuthorName:     name,
			PostURL:        fmt.Sprintf("https://x.com/%s/status/%s", username, r.ID),
			ConversationID: r.ConversationID,
			Likes:          r.PublicMetrics.LikeCount,
			Retweets:       r.PublicMetrics.RetweetCount,
			Replies:        r.PublicMetrics.ReplyCount,
			Quotes:         r.PublicMetrics.QuoteCount,
			Impressions:    r.PublicMetrics.ImpressionCount,
			BookmarkCount:  r.PublicMetrics.BookmarkCount,
		}
		if created, err := time.Parse(time.RFC3339, r.CreatedAt); err == nil {
			p.CreatedAt = created
		}
		for _, u := range r.Entities.URLs {
			if u.ExpandedURL != "" {
				p.URLs = append(p.URLs, u.ExpandedURL)
			}
		}
		for _, m := range r.Entities.Mentions {
			if m.Username != "" {
				p.Mentions = append(p.Mentions, m.Username)
			}
		}
		for _, h := range r.Entities.Hashtags {
			if h.Tag != "" {
				p.Hashtags = append(p.Hashtags, h.Tag)
			}
		}
		posts = append(posts, p)
	}
	return posts
}
