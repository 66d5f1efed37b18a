package reconciler

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"lemmy-mod-bot/lemmy"
	"lemmy-mod-bot/model"
)

const fetchPageSize = 50

// AuthProvider returns the bot's own Lemmy token, used for listings that
// require moderator visibility.
type AuthProvider func() string

// Fetcher pulls snapshots for configured communities and feeds them into the
// reconciler. Communities are drained in sequence with a fixed delay between
// them to stay friendly to the upstream API.
type Fetcher struct {
	client lemmy.Client
	rec    *Reconciler
	config ConfigProvider
	auth   AuthProvider
}

func NewFetcher(client lemmy.Client, rec *Reconciler, config ConfigProvider, auth AuthProvider) *Fetcher {
	return &Fetcher{
		client: client,
		rec:    rec,
		config: config,
		auth:   auth,
	}
}

// Batch holds the snapshots one ReconcileBatch call processed.
type Batch struct {
	Posts          []model.PostView
	Comments       []model.CommentView
	PostReports    []model.PostReportView
	CommentReports []model.CommentReportView
}

// ReconcileBatch runs one fetch+reconcile pass for a single community and
// returns the processed snapshots.
func (f *Fetcher) ReconcileBatch(ctx context.Context, communityID int) (*Batch, error) {
	cfg := f.config().CommunityConfig(communityID)
	if cfg == nil {
		return nil, fmt.Errorf("community %d has no moderation config", communityID)
	}

	batch, err := f.fetchCommunity(ctx, cfg)
	if err != nil {
		return nil, err
	}

	f.rec.ProcessPosts(batch.Posts)
	f.rec.ProcessComments(batch.Comments)
	f.rec.ProcessPostReports(batch.PostReports)
	f.rec.ProcessCommentReports(batch.CommentReports)

	return batch, nil
}

func (f *Fetcher) fetchCommunity(ctx context.Context, cfg *model.CommunityConfig) (*Batch, error) {
	auth := f.auth()
	batch := &Batch{}

	if cfg.Posts.Enabled {
		posts, err := f.client.GetPosts(ctx, lemmy.GetPosts{
			CommunityID: cfg.CommunityID,
			Sort:        "New",
			Type:        "Local",
			Limit:       fetchPageSize,
			Auth:        auth,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch posts for community %d: %w", cfg.CommunityID, err)
		}
		batch.Posts = posts
	}

	if cfg.Comments.Enabled {
		comments, err := f.client.GetComments(ctx, lemmy.GetComments{
			CommunityID: cfg.CommunityID,
			Sort:        "New",
			Type:        "Local",
			Limit:       fetchPageSize,
			Auth:        auth,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch comments for community %d: %w", cfg.CommunityID, err)
		}
		batch.Comments = comments
	}

	if cfg.Reports.Enabled {
		postReports, err := f.client.ListPostReports(ctx, lemmy.ListReports{
			CommunityID:    cfg.CommunityID,
			Limit:          fetchPageSize,
			UnresolvedOnly: true,
			Auth:           auth,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch post reports for community %d: %w", cfg.CommunityID, err)
		}
		batch.PostReports = postReports

		commentReports, err := f.client.ListCommentReports(ctx, lemmy.ListReports{
			CommunityID:    cfg.CommunityID,
			Limit:          fetchPageSize,
			UnresolvedOnly: true,
			Auth:           auth,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch comment reports for community %d: %w", cfg.CommunityID, err)
		}
		batch.CommentReports = commentReports
	}

	return batch, nil
}

// FetchCycle drains every configured community once. A failing community is
// logged and skipped; the cycle continues with the next one.
func (f *Fetcher) FetchCycle(ctx context.Context) {
	cfg := f.config()

	keys := make([]string, 0, len(cfg.Communities))
	for k := range cfg.Communities {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for i, key := range keys {
		select {
		case <-ctx.Done():
			log.Println("[Fetcher] Cycle cancelled.")
			return
		default:
		}

		community := cfg.Communities[key]
		batch, err := f.ReconcileBatch(ctx, community.CommunityID)
		if err != nil {
			log.Printf("[Fetcher] Error processing community %s (%d): %v", community.Name, community.CommunityID, err)
		} else {
			log.Printf("[Fetcher] Community %s: %d posts, %d comments, %d reports",
				community.Name, len(batch.Posts), len(batch.Comments),
				len(batch.PostReports)+len(batch.CommentReports))
		}

		// Soft rate limit between communities.
		if i+1 < len(keys) {
			select {
			case <-time.After(cfg.FetchDelay):
			case <-ctx.Done():
				log.Println("[Fetcher] Cycle cancelled.")
				return
			}
		}
	}
}
