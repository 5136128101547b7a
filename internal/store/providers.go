package store

import (
	"context"
	"database/sql"

	archerr "github.com/openarchive/unisearch/internal/errors"
	"github.com/openarchive/unisearch/internal/index"
)

// EntityProvider projects the entities table into searchable records.
func (a *Archive) EntityProvider() index.Provider {
	return index.ProviderFunc{
		SourceType: index.SourceEntity,
		Fn:         a.entityRecords,
	}
}

func (a *Archive) entityRecords(ctx context.Context) ([]*index.Record, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, name, aliases, entity_type
		FROM entities
		ORDER BY id
	`)
	if err != nil {
		return nil, archerr.IOError(archerr.ErrCodeArchiveQuery, "query entities", err)
	}
	defer rows.Close()

	var records []*index.Record
	for rows.Next() {
		var id, name, aliases, entityType string
		if err := rows.Scan(&id, &name, &aliases, &entityType); err != nil {
			return nil, archerr.IOError(archerr.ErrCodeArchiveQuery, "scan entity", err)
		}

		attrs := map[string]string{}
		if entityType != "" {
			attrs[index.AttrEntityType] = entityType
		}
		records = append(records, &index.Record{
			ID:             id,
			Source:         index.SourceEntity,
			PrimaryText:    name,
			SecondaryTexts: decodeAliases(aliases),
			Attributes:     attrs,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, archerr.IOError(archerr.ErrCodeArchiveQuery, "iterate entities", err)
	}
	return records, nil
}

// DocumentProvider projects the documents table into searchable records.
func (a *Archive) DocumentProvider() index.Provider {
	return index.ProviderFunc{
		SourceType: index.SourceDocument,
		Fn:         a.documentRecords,
	}
}

func (a *Archive) documentRecords(ctx context.Context) ([]*index.Record, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, title, filename, excerpt, doc_type, source, doc_date
		FROM documents
		ORDER BY id
	`)
	if err != nil {
		return nil, archerr.IOError(archerr.ErrCodeArchiveQuery, "query documents", err)
	}
	defer rows.Close()

	var records []*index.Record
	for rows.Next() {
		var id, title, filename, excerpt, docType, source string
		var docDate sql.NullString
		if err := rows.Scan(&id, &title, &filename, &excerpt, &docType, &source, &docDate); err != nil {
			return nil, archerr.IOError(archerr.ErrCodeArchiveQuery, "scan document", err)
		}

		var secondary []string
		if filename != "" {
			secondary = append(secondary, filename)
		}
		if excerpt != "" {
			secondary = append(secondary, excerpt)
		}

		attrs := map[string]string{}
		if docType != "" {
			attrs[index.AttrDocType] = docType
		}
		if source != "" {
			attrs[index.AttrSource] = source
		}
		records = append(records, &index.Record{
			ID:             id,
			Source:         index.SourceDocument,
			PrimaryText:    title,
			SecondaryTexts: secondary,
			Attributes:     attrs,
			Timestamp:      parseDate(docDate),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, archerr.IOError(archerr.ErrCodeArchiveQuery, "iterate documents", err)
	}
	return records, nil
}

// NewsProvider projects the news table into searchable records.
func (a *Archive) NewsProvider() index.Provider {
	return index.ProviderFunc{
		SourceType: index.SourceNews,
		Fn:         a.newsRecords,
	}
}

func (a *Archive) newsRecords(ctx context.Context) ([]*index.Record, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, headline, excerpt, publication, published_at
		FROM news
		ORDER BY id
	`)
	if err != nil {
		return nil, archerr.IOError(archerr.ErrCodeArchiveQuery, "query news", err)
	}
	defer rows.Close()

	var records []*index.Record
	for rows.Next() {
		var id, headline, excerpt, publication string
		var published sql.NullString
		if err := rows.Scan(&id, &headline, &excerpt, &publication, &published); err != nil {
			return nil, archerr.IOError(archerr.ErrCodeArchiveQuery, "scan article", err)
		}

		var secondary []string
		if excerpt != "" {
			secondary = append(secondary, excerpt)
		}

		attrs := map[string]string{}
		if publication != "" {
			attrs[index.AttrSource] = publication
		}
		records = append(records, &index.Record{
			ID:             id,
			Source:         index.SourceNews,
			PrimaryText:    headline,
			SecondaryTexts: secondary,
			Attributes:     attrs,
			Timestamp:      parseDate(published),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, archerr.IOError(archerr.ErrCodeArchiveQuery, "iterate news", err)
	}
	return records, nil
}

// Providers returns all three archive providers in source priority order.
func (a *Archive) Providers() []index.Provider {
	return []index.Provider{
		a.EntityProvider(),
		a.DocumentProvider(),
		a.NewsProvider(),
	}
}
