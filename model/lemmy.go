package model

// Types mirroring the Lemmy v3 API views the bot consumes. Timestamps stay as
// the raw strings Lemmy sends; reconciliation only ever compares them for
// equality.

type Person struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	ActorID string `json:"actor_id"`
	Admin   bool   `json:"admin"`
	Banned  bool   `json:"banned"`
}

type Community struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Title   string `json:"title"`
	ActorID string `json:"actor_id"`
}

type Post struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Body        string  `json:"body"`
	URL         string  `json:"url"`
	CreatorID   int     `json:"creator_id"`
	CommunityID int     `json:"community_id"`
	Removed     bool    `json:"removed"`
	Locked      bool    `json:"locked"`
	Deleted     bool    `json:"deleted"`
	Published   string  `json:"published"`
	Updated     *string `json:"updated"`
}

type Comment struct {
	ID        int     `json:"id"`
	Content   string  `json:"content"`
	CreatorID int     `json:"creator_id"`
	PostID    int     `json:"post_id"`
	Removed   bool    `json:"removed"`
	Deleted   bool    `json:"deleted"`
	Published string  `json:"published"`
	Updated   *string `json:"updated"`
}

type PostView struct {
	Post                       Post      `json:"post"`
	Creator                    Person    `json:"creator"`
	Community                  Community `json:"community"`
	CreatorBannedFromCommunity bool      `json:"creator_banned_from_community"`
}

type CommentView struct {
	Comment                    Comment   `json:"comment"`
	Creator                    Person    `json:"creator"`
	Post                       Post      `json:"post"`
	Community                  Community `json:"community"`
	CreatorBannedFromCommunity bool      `json:"creator_banned_from_community"`
}

type PostReport struct {
	ID         int    `json:"id"`
	CreatorID  int    `json:"creator_id"`
	PostID     int    `json:"post_id"`
	Reason     string `json:"reason"`
	Resolved   bool   `json:"resolved"`
	ResolverID *int   `json:"resolver_id"`
	Published  string `json:"published"`
}

type PostReportView struct {
	PostReport                 PostReport `json:"post_report"`
	Post                       Post       `json:"post"`
	Community                  Community  `json:"community"`
	Creator                    Person     `json:"creator"`
	PostCreator                Person     `json:"post_creator"`
	CreatorBannedFromCommunity bool       `json:"creator_banned_from_community"`
}

type CommentReport struct {
	ID         int    `json:"id"`
	CreatorID  int    `json:"creator_id"`
	CommentID  int    `json:"comment_id"`
	Reason     string `json:"reason"`
	Resolved   bool   `json:"resolved"`
	ResolverID *int   `json:"resolver_id"`
	Published  string `json:"published"`
}

type CommentReportView struct {
	CommentReport              CommentReport `json:"comment_report"`
	Comment                    Comment       `json:"comment"`
	Post                       Post          `json:"post"`
	Community                  Community     `json:"community"`
	Creator                    Person        `json:"creator"`
	CommentCreator             Person        `json:"comment_creator"`
	CreatorBannedFromCommunity bool          `json:"creator_banned_from_community"`
}
