package dispatch

import (
	"strconv"
	"time"

	"bulletin/internal/conversation"
	"bulletin/internal/models"
)

// ReplyKind tells the transport which template answers the acting user.
type ReplyKind string

const (
	ReplyWelcome               ReplyKind = "welcome"
	ReplyWelcomeBack           ReplyKind = "welcome_back"
	ReplyHelp                  ReplyKind = "help"
	ReplyPrompt                ReplyKind = "prompt"
	ReplyProfile               ReplyKind = "profile"
	ReplyPosts                 ReplyKind = "posts"
	ReplyTop                   ReplyKind = "top"
	ReplyPost                  ReplyKind = "post"
	ReplyComments              ReplyKind = "comments"
	ReplyReacted               ReplyKind = "reacted"
	ReplyRegistrationSubmitted ReplyKind = "registration_submitted"
	ReplyPostPublished         ReplyKind = "post_published"
	ReplyCommentAdded          ReplyKind = "comment_added"
	ReplyComplaintSent         ReplyKind = "complaint_sent"
	ReplySupportSent           ReplyKind = "support_sent"
	ReplySupportReplySent      ReplyKind = "support_reply_sent"
	ReplyMemberBanned          ReplyKind = "member_banned"
	ReplyMemberUnbanned        ReplyKind = "member_unbanned"
	ReplyUsers                 ReplyKind = "users"
	ReplyComplaints            ReplyKind = "complaints"
	ReplyBroadcastSent         ReplyKind = "broadcast_sent"
	ReplyRegistrationApproved  ReplyKind = "registration_approved"
	ReplyRegistrationRejected  ReplyKind = "registration_rejected"
	ReplyCancelled             ReplyKind = "cancelled"
	ReplyNoConversation        ReplyKind = "no_conversation"
)

// Reply is the answer to the acting user, in abstract form.
type Reply struct {
	Kind    ReplyKind         `json:"kind"`
	Params  map[string]string `json:"params,omitempty"`
	Data    any               `json:"data,omitempty"`
	Actions []models.Action   `json:"actions,omitempty"`
}

// Refusal is a domain error turned into a user-visible answer.
type Refusal struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result is everything one entry point produced. Exactly one of Reply and
// Refusal is set; Notifications are for other users.
type Result struct {
	Reply         *Reply                `json:"reply,omitempty"`
	Refusal       *Refusal              `json:"refusal,omitempty"`
	Notifications []models.Notification `json:"notifications,omitempty"`
}

func reply(kind ReplyKind, params map[string]string) Result {
	return Result{Reply: &Reply{Kind: kind, Params: params}}
}

func replyData(kind ReplyKind, data any) Result {
	return Result{Reply: &Reply{Kind: kind, Data: data}}
}

func (r Result) notify(notes ...models.Notification) Result {
	r.Notifications = append(r.Notifications, notes...)
	return r
}

func prompt(flow conversation.Flow, step conversation.Step, extra map[string]string) Result {
	params := map[string]string{"flow": string(flow), "step": string(step)}
	for k, v := range extra {
		params[k] = v
	}
	return reply(ReplyPrompt, params)
}

func id64(v int64) string { return strconv.FormatInt(v, 10) }

func stamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }

// PostSummary is a feed line.
type PostSummary struct {
	ID        int       `json:"id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	Likes     int       `json:"likes"`
	Dislikes  int       `json:"dislikes"`
	Score     int       `json:"score"`
	Comments  int       `json:"comments"`
	CreatedAt time.Time `json:"created_at"`
}

// PostView is a single post with its latest comments.
type PostView struct {
	PostSummary
	LatestComments []models.Comment `json:"latest_comments"`
}

// CommentsView lists every comment of a post.
type CommentsView struct {
	PostID   int              `json:"post_id"`
	Excerpt  string           `json:"excerpt"`
	Comments []models.Comment `json:"comments"`
}

// ProfileView is what /profile shows. Admin lookups include contact details.
type ProfileView struct {
	FullName    string     `json:"full_name"`
	ClassLabel  string     `json:"class"`
	AccountCode string     `json:"account_code"`
	Bio         string     `json:"bio,omitempty"`
	Username    string     `json:"username,omitempty"`
	UserID      int64      `json:"user_id,omitempty"`
	BannedUntil *time.Time `json:"banned_until,omitempty"`
}

// MemberLine is one row of the admin member list.
type MemberLine struct {
	UserID      int64  `json:"user_id"`
	Name        string `json:"name"`
	ClassLabel  string `json:"class"`
	AccountCode string `json:"account_code"`
	Banned      bool   `json:"banned"`
}

// HelpView is the command catalogue.
type HelpView struct {
	Commands      []string `json:"commands"`
	AdminCommands []string `json:"admin_commands,omitempty"`
}

func summarize(p models.Post) PostSummary {
	return PostSummary{
		ID:        p.ID,
		Author:    p.AuthorDisplayName,
		Text:      p.Text,
		Likes:     p.Likes,
		Dislikes:  p.Dislikes,
		Score:     p.Score(),
		Comments:  len(p.Comments),
		CreatedAt: p.CreatedAt,
	}
}

func summarizeAll(posts []models.Post) []PostSummary {
	out := make([]PostSummary, 0, len(posts))
	for _, p := range posts {
		out = append(out, summarize(p))
	}
	return out
}

func excerpt(text string, limit int) string {
	r := []rune(text)
	if len(r) <= limit {
		return text
	}
	return string(r[:limit]) + "..."
}
