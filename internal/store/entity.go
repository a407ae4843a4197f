package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/litgraph/litgraph/internal/literature"
)

// entityRow is the column view of an entity for writes. Empty strings are
// stored as NULL so the partial unique indexes stay meaningful.
type entityRow struct {
	doi            sql.NullString
	arxivID        sql.NullString
	pmid           sql.NullString
	url            sql.NullString
	pdfURL         sql.NullString
	sourcePage     sql.NullString
	authorsJSON    string
	year           sql.NullInt64
	venue          sql.NullString
	abstract       sql.NullString
	keywordsJSON   sql.NullString
	externalJSON   sql.NullString
	rawRefsJSON    sql.NullString
	componentsJSON string
}

func marshalEntity(e *literature.Entity) (entityRow, error) {
	var row entityRow

	authorsJSON, err := json.Marshal(e.Meta.Authors)
	if err != nil {
		return row, fmt.Errorf("marshaling authors for %s: %w", e.LID, err)
	}
	componentsJSON, err := json.Marshal(e.Components)
	if err != nil {
		return row, fmt.Errorf("marshaling components for %s: %w", e.LID, err)
	}

	row = entityRow{
		doi:            nullable(e.Identifiers.DOI),
		arxivID:        nullable(e.Identifiers.ArxivID),
		pmid:           nullable(e.Identifiers.PMID),
		url:            nullable(e.Identifiers.URL),
		pdfURL:         nullable(pickPDFURL(e)),
		sourcePage:     nullable(e.SourcePageURL),
		authorsJSON:    string(authorsJSON),
		venue:          nullable(e.Meta.Venue),
		abstract:       nullable(e.Meta.Abstract),
		componentsJSON: string(componentsJSON),
	}
	if e.Meta.Year != 0 {
		row.year = sql.NullInt64{Int64: int64(e.Meta.Year), Valid: true}
	}
	if len(e.Meta.Keywords) > 0 {
		b, err := json.Marshal(e.Meta.Keywords)
		if err != nil {
			return row, fmt.Errorf("marshaling keywords for %s: %w", e.LID, err)
		}
		row.keywordsJSON = nullable(string(b))
	}
	if len(e.Meta.ExternalIDs) > 0 {
		b, err := json.Marshal(e.Meta.ExternalIDs)
		if err != nil {
			return row, fmt.Errorf("marshaling external ids for %s: %w", e.LID, err)
		}
		row.externalJSON = nullable(string(b))
	}
	if len(e.RawReferences) > 0 {
		b, err := json.Marshal(e.RawReferences)
		if err != nil {
			return row, fmt.Errorf("marshaling references for %s: %w", e.LID, err)
		}
		row.rawRefsJSON = nullable(string(b))
	}
	return row, nil
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntity(s scanner) (*literature.Entity, error) {
	var e literature.Entity
	var doi, arxivID, pmid, url, pdfURL, sourcePage sql.NullString
	var venue, abstract sql.NullString
	var authorsJSON, keywordsJSON, externalJSON, rawRefsJSON, componentsJSON sql.NullString
	var year sql.NullInt64
	var createdAt, updatedAt int64

	err := s.Scan(
		&e.LID, &doi, &arxivID, &pmid, &url, &pdfURL, &sourcePage,
		&e.Meta.Title, &authorsJSON, &year, &venue, &abstract,
		&keywordsJSON, &externalJSON, &rawRefsJSON, &componentsJSON,
		&e.QualityScore, &createdAt, &updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	e.Identifiers = literature.IdentifierSet{
		DOI:     doi.String,
		ArxivID: arxivID.String,
		PMID:    pmid.String,
		URL:     url.String,
		PDFURL:  pdfURL.String,
	}
	e.PDFURL = pdfURL.String
	e.SourcePageURL = sourcePage.String
	e.Meta.Venue = venue.String
	e.Meta.Abstract = abstract.String
	if year.Valid {
		e.Meta.Year = int(year.Int64)
	}
	e.CreatedAt = time.Unix(createdAt, 0)
	e.UpdatedAt = time.Unix(updatedAt, 0)

	if authorsJSON.Valid {
		if err := json.Unmarshal([]byte(authorsJSON.String), &e.Meta.Authors); err != nil {
			return nil, fmt.Errorf("parsing authors JSON for %s: %w", e.LID, err)
		}
	}
	if keywordsJSON.Valid && keywordsJSON.String != "" {
		if err := json.Unmarshal([]byte(keywordsJSON.String), &e.Meta.Keywords); err != nil {
			return nil, fmt.Errorf("parsing keywords JSON for %s: %w", e.LID, err)
		}
	}
	if externalJSON.Valid && externalJSON.String != "" {
		if err := json.Unmarshal([]byte(externalJSON.String), &e.Meta.ExternalIDs); err != nil {
			return nil, fmt.Errorf("parsing external ids JSON for %s: %w", e.LID, err)
		}
	}
	if rawRefsJSON.Valid && rawRefsJSON.String != "" {
		if err := json.Unmarshal([]byte(rawRefsJSON.String), &e.RawReferences); err != nil {
			return nil, fmt.Errorf("parsing references JSON for %s: %w", e.LID, err)
		}
	}
	if componentsJSON.Valid {
		if err := json.Unmarshal([]byte(componentsJSON.String), &e.Components); err != nil {
			return nil, fmt.Errorf("parsing components JSON for %s: %w", e.LID, err)
		}
	}
	return &e, nil
}

func scanEntities(rows *sql.Rows) ([]literature.Entity, error) {
	var out []literature.Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		if e != nil {
			out = append(out, *e)
		}
	}
	return out, rows.Err()
}

// pickPDFURL keeps the entity-level location and the identifier copy in one
// column.
func pickPDFURL(e *literature.Entity) string {
	if e.PDFURL != "" {
		return e.PDFURL
	}
	return e.Identifiers.PDFURL
}

// nullable converts a string to sql.NullString, treating empty as NULL.
func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
