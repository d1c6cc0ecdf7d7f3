// Copyright (c) Tailwise (dev@tailwise.app)
// SPDX-License-Identifier: BUSL-1.1

package petdb

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
)

// Client provides owner-scoped access to the Firestore records backing
// Tailwise: pet profiles, chat sessions, and chat messages. All operations
// take the owning user's ID explicitly; records of other users are not
// reachable through it.
type Client struct {
	app *firebase.App

	mu sync.Mutex
	fs *firestore.Client
}

// NewClient returns a Client backed by the project's Firestore database.
func NewClient(ctx context.Context, app *firebase.App) (*Client, error) {
	fs, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("petdb: create firestore client: %w", err)
	}
	return &Client{app: app, fs: fs}, nil
}

// Close releases the underlying Firestore client.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.fs.Close(); err != nil {
		return fmt.Errorf("petdb: close firestore client: %w", err)
	}
	return nil
}

// RefreshSession re-dials the Firestore client, discarding credentials that
// may have gone stale. Invoked at most once per failed write by callers that
// see a permission-denied error.
func (c *Client) RefreshSession(ctx context.Context) error {
	fs, err := c.app.Firestore(ctx)
	if err != nil {
		return fmt.Errorf("petdb: refresh firestore client: %w", err)
	}
	c.mu.Lock()
	old := c.fs
	c.fs = fs
	c.mu.Unlock()
	if err := old.Close(); err != nil {
		slog.WarnContext(ctx, "petdb: closing stale firestore client", "error", err)
	}
	return nil
}

func (c *Client) store() *firestore.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fs
}

func (c *Client) profiles(userID string) *firestore.CollectionRef {
	return c.store().Collection("users").Doc(userID).Collection("petProfiles")
}

func (c *Client) sessions(userID string) *firestore.CollectionRef {
	return c.store().Collection("users").Doc(userID).Collection("chatSessions")
}

func (c *Client) messages(userID, sessionID string) *firestore.CollectionRef {
	return c.sessions(userID).Doc(sessionID).Collection("messages")
}

// CreateProfile inserts a new profile record for the user and returns its ID.
func (c *Client) CreateProfile(ctx context.Context, userID string, profile *PetProfile) (string, error) {
	doc := c.profiles(userID).NewDoc()
	profile.ID = doc.ID
	profile.UserID = userID
	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now
	if _, err := doc.Create(ctx, profile); err != nil {
		return "", fmt.Errorf("petdb: creating profile: %w", err)
	}
	return doc.ID, nil
}

// UpdateProfile rewrites an existing profile in place, scoped by both the
// record ID and the owning user.
func (c *Client) UpdateProfile(ctx context.Context, userID string, profile *PetProfile) error {
	profile.UserID = userID
	profile.UpdatedAt = time.Now()
	if _, err := c.profiles(userID).Doc(profile.ID).Set(ctx, profile); err != nil {
		return fmt.Errorf("petdb: updating profile: %w", err)
	}
	return nil
}

// GetProfile fetches one profile by ID for the user.
func (c *Client) GetProfile(ctx context.Context, userID string, profileID string) (*PetProfile, error) {
	doc, err := c.profiles(userID).Doc(profileID).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("petdb: getting profile: %w", err)
	}
	var profile PetProfile
	if err := doc.DataTo(&profile); err != nil {
		return nil, fmt.Errorf("petdb: decoding profile: %w", err)
	}
	return &profile, nil
}

// ListProfiles returns the user's profiles, newest first.
func (c *Client) ListProfiles(ctx context.Context, userID string) ([]PetProfile, error) {
	iter := c.profiles(userID).Query.OrderBy("created_at", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var profiles []PetProfile
	for {
		doc, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("petdb: listing profiles: %w", err)
		}
		var profile PetProfile
		if err := doc.DataTo(&profile); err != nil {
			return nil, fmt.Errorf("petdb: decoding profile: %w", err)
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

// WatchProfiles returns a snapshot iterator over the user's profile list,
// firing once per change to any of the user's profiles. The caller must stop
// the iterator.
func (c *Client) WatchProfiles(ctx context.Context, userID string) *firestore.QuerySnapshotIterator {
	return c.profiles(userID).Query.OrderBy("created_at", firestore.Desc).Snapshots(ctx)
}

// CreateSession inserts a new chat session for the user and returns its ID.
func (c *Client) CreateSession(ctx context.Context, session *ChatSession) (string, error) {
	doc := c.sessions(session.UserID).NewDoc()
	session.ID = doc.ID
	session.CreatedAt = time.Now()
	if _, err := doc.Create(ctx, session); err != nil {
		return "", fmt.Errorf("petdb: creating chat session: %w", err)
	}
	return doc.ID, nil
}

// SetSessionTitle replaces the stored title of a session.
func (c *Client) SetSessionTitle(ctx context.Context, userID string, sessionID string, title string) error {
	_, err := c.sessions(userID).Doc(sessionID).Update(ctx, []firestore.Update{
		{Path: "title", Value: title},
	})
	if err != nil {
		return fmt.Errorf("petdb: updating session title: %w", err)
	}
	return nil
}

// ListSessions returns the user's chat sessions, newest first.
func (c *Client) ListSessions(ctx context.Context, userID string) ([]ChatSession, error) {
	iter := c.sessions(userID).Query.OrderBy("created_at", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var sessions []ChatSession
	for {
		doc, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("petdb: listing chat sessions: %w", err)
		}
		var session ChatSession
		if err := doc.DataTo(&session); err != nil {
			return nil, fmt.Errorf("petdb: decoding chat session: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// AppendMessage persists one message under its session.
func (c *Client) AppendMessage(ctx context.Context, userID string, msg *ChatMessage) error {
	if _, err := c.messages(userID, msg.SessionID).Doc(msg.ID).Create(ctx, msg); err != nil {
		return fmt.Errorf("petdb: appending chat message: %w", err)
	}
	return nil
}

// SessionMessages returns the messages of one session ordered by timestamp.
func (c *Client) SessionMessages(ctx context.Context, userID string, sessionID string) ([]ChatMessage, error) {
	iter := c.messages(userID, sessionID).Query.OrderBy("timestamp", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var msgs []ChatMessage
	for {
		doc, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("petdb: listing chat messages: %w", err)
		}
		var msg ChatMessage
		if err := doc.DataTo(&msg); err != nil {
			return nil, fmt.Errorf("petdb: decoding chat message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}
