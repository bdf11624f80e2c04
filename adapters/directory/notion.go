package directory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rs/zerolog"

	"github.com/jonasXchen/magicblock-hacker-house/core"
	"github.com/jonasXchen/magicblock-hacker-house/ports"
)

// Property names in the onboarding database.
const (
	propName        = "Name"
	propEmail       = "Email"
	propProject     = "Project"
	propDescription = "Description"
	propSocial      = "X Handle"
	propCodeHosting = "GitHub"
	propWallet      = "PublicKey"
	propJoinedAt    = "Joined At"

	githubProfilePrefix = "https://github.com/"
)

type notionDatabases interface {
	Query(ctx context.Context, id notionapi.DatabaseID, request *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
}

type notionPages interface {
	Create(ctx context.Context, request *notionapi.PageCreateRequest) (*notionapi.Page, error)
	Update(ctx context.Context, id notionapi.PageID, request *notionapi.PageUpdateRequest) (*notionapi.Page, error)
}

// NotionDirectory stores profiles as pages of a Notion database
type NotionDirectory struct {
	databases  notionDatabases
	pages      notionPages
	databaseID notionapi.DatabaseID
	logger     zerolog.Logger
	now        func() time.Time
}

// NewNotionDirectory creates a directory backed by the given Notion client and database
func NewNotionDirectory(client *notionapi.Client, databaseID string, logger zerolog.Logger) ports.Directory {
	return newNotionDirectory(client.Database, client.Page, databaseID, logger)
}

func newNotionDirectory(databases notionDatabases, pages notionPages, databaseID string, logger zerolog.Logger) *NotionDirectory {
	return &NotionDirectory{
		databases:  databases,
		pages:      pages,
		databaseID: notionapi.DatabaseID(databaseID),
		logger:     logger.With().Str("component", "notion_directory").Logger(),
		now:        time.Now,
	}
}

// FindByWallet queries the database for an exact PublicKey match, newest first.
// Results are filtered again locally; the query layer is not trusted to be exact.
func (d *NotionDirectory) FindByWallet(ctx context.Context, walletIdentity string) (*core.Profile, error) {
	req := &notionapi.DatabaseQueryRequest{
		Filter: &notionapi.PropertyFilter{
			Property: propWallet,
			RichText: &notionapi.TextFilterCondition{Equals: walletIdentity},
		},
		Sorts: []notionapi.SortObject{
			{Property: propJoinedAt, Direction: notionapi.SortOrderDESC},
		},
	}

	for {
		resp, err := d.databases.Query(ctx, d.databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to query notion database: %w", core.ErrUpstream, err)
		}

		for i := range resp.Results {
			page := &resp.Results[i]
			if !sameDatabase(page.Parent.DatabaseID, d.databaseID) {
				d.logger.Debug().Str("page_id", page.ID.String()).Msg("Skipping page from another database")
				continue
			}
			profile := pageToProfile(page)
			if profile.WalletIdentity != walletIdentity {
				continue
			}
			return profile, nil
		}

		if !resp.HasMore || resp.NextCursor == "" {
			return nil, core.ErrProfileNotFound
		}
		req.StartCursor = resp.NextCursor
	}
}

func (d *NotionDirectory) Create(ctx context.Context, walletIdentity string, fields core.ProfileFields) (string, error) {
	props := fieldsToProperties(fields)
	props[propWallet] = richText(walletIdentity)
	joined := notionapi.Date(d.now())
	props[propJoinedAt] = &notionapi.DateProperty{
		Type: notionapi.PropertyTypeDate,
		Date: &notionapi.DateObject{Start: &joined},
	}

	page, err := d.pages.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: d.databaseID,
		},
		Properties: props,
	})
	if err != nil {
		return "", fmt.Errorf("%w: failed to create notion page: %w", core.ErrUpstream, err)
	}
	return page.ID.String(), nil
}

func (d *NotionDirectory) Update(ctx context.Context, recordID string, fields core.ProfileFields) error {
	_, err := d.pages.Update(ctx, notionapi.PageID(recordID), &notionapi.PageUpdateRequest{
		Properties: fieldsToProperties(fields),
	})
	if err != nil {
		return fmt.Errorf("%w: failed to update notion page: %w", core.ErrUpstream, err)
	}
	return nil
}

func fieldsToProperties(f core.ProfileFields) notionapi.Properties {
	props := notionapi.Properties{
		propName: &notionapi.TitleProperty{
			Type:  notionapi.PropertyTypeTitle,
			Title: []notionapi.RichText{{Text: &notionapi.Text{Content: f.Name}}},
		},
		propEmail: &notionapi.EmailProperty{
			Type:  notionapi.PropertyTypeEmail,
			Email: f.Email,
		},
		propProject:     richText(f.Project),
		propDescription: richText(f.Description),
		propSocial:      richText(f.SocialHandle),
	}
	if handle := strings.TrimSpace(f.CodeHostingHandle); handle != "" {
		props[propCodeHosting] = &notionapi.URLProperty{
			Type: notionapi.PropertyTypeURL,
			URL:  githubProfilePrefix + handle,
		}
	}
	return props
}

func richText(s string) *notionapi.RichTextProperty {
	return &notionapi.RichTextProperty{
		Type:     notionapi.PropertyTypeRichText,
		RichText: []notionapi.RichText{{Text: &notionapi.Text{Content: s}}},
	}
}

func pageToProfile(page *notionapi.Page) *core.Profile {
	p := &core.Profile{
		ID:        page.ID.String(),
		CreatedAt: page.CreatedTime,
	}
	for name, prop := range page.Properties {
		switch name {
		case propName:
			p.Name = propertyText(prop)
		case propEmail:
			p.Email = propertyText(prop)
		case propProject:
			p.Project = propertyText(prop)
		case propDescription:
			p.Description = propertyText(prop)
		case propSocial:
			p.SocialHandle = propertyText(prop)
		case propCodeHosting:
			p.CodeHostingHandle = strings.TrimPrefix(propertyText(prop), githubProfilePrefix)
		case propWallet:
			p.WalletIdentity = propertyText(prop)
		case propJoinedAt:
			if t, ok := propertyTime(prop); ok {
				p.CreatedAt = t
			}
		}
	}
	return p
}

// propertyText flattens the supported property types to plain text.
func propertyText(prop notionapi.Property) string {
	switch v := prop.(type) {
	case *notionapi.TitleProperty:
		return plainText(v.Title)
	case *notionapi.RichTextProperty:
		return plainText(v.RichText)
	case *notionapi.EmailProperty:
		return v.Email
	case *notionapi.URLProperty:
		return v.URL
	}
	return ""
}

func propertyTime(prop notionapi.Property) (time.Time, bool) {
	var date *notionapi.DateObject
	switch v := prop.(type) {
	case *notionapi.DateProperty:
		date = v.Date
	}
	if date == nil || date.Start == nil {
		return time.Time{}, false
	}
	return time.Time(*date.Start), true
}

func plainText(parts []notionapi.RichText) string {
	var b strings.Builder
	for _, rt := range parts {
		switch {
		case rt.PlainText != "":
			b.WriteString(rt.PlainText)
		case rt.Text != nil:
			b.WriteString(rt.Text.Content)
		}
	}
	return b.String()
}

func sameDatabase(a, b notionapi.DatabaseID) bool {
	return normalizeID(string(a)) == normalizeID(string(b))
}

func normalizeID(id string) string {
	return strings.ToLower(strings.ReplaceAll(id, "-", ""))
}
