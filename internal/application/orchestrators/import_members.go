package orchestrators

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"shepherd/internal/domain/checkin"
	"shepherd/internal/domain/member"
)

// MemberImportStore is what ImportMembers needs from the member store.
type MemberImportStore interface {
	GetByEmail(ctx context.Context, email string) (member.Member, error)
	Save(ctx context.Context, m member.Member) error
}

// ImportMembersInput carries the CSV stream and import options.
type ImportMembersInput struct {
	Reader     io.Reader
	DryRun     bool
	UpdateMode bool // update members whose email already exists instead of skipping them
}

// ImportMembersResult holds aggregate counts and per-row errors from an import run.
type ImportMembersResult struct {
	Total   int
	Created int
	Updated int
	Skipped int
	Errors  []ImportRowError
	DryRun  bool
	Unknown []string // header columns that were ignored
}

// ImportRowError describes why one CSV row was rejected. Row counts the
// header as row 1.
type ImportRowError struct {
	Row     int
	Message string
}

// ImportMembersDeps holds dependencies for ImportMembers.
type ImportMembersDeps struct {
	MemberStore MemberImportStore
	Clock       Clock
	NewID       IDGenerator
}

var importColumns = map[string]bool{
	"NAME": true, "EMAIL": true, "PHONE": true, "GENDER": true, "GROUP": true, "STATUS": true, "JOINED": true,
}

// ExecuteImportMembers creates or updates members from a CSV roster.
// PRE: the first row is a header naming at least NAME, EMAIL and PHONE
// POST: valid rows are saved unless DryRun; invalid rows are reported and skipped
// INVARIANT: existing member ids are kept on update; members are never deleted
func ExecuteImportMembers(ctx context.Context, input ImportMembersInput, deps ImportMembersDeps) (ImportMembersResult, error) {
	cr := csv.NewReader(input.Reader)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return ImportMembersResult{}, checkin.Wrap(checkin.CodeValidation, "could not read CSV header", err)
	}
	cols := make(map[string]int, len(header))
	result := ImportMembersResult{DryRun: input.DryRun}
	for i, h := range header {
		key := strings.ToUpper(strings.TrimSpace(h))
		cols[key] = i
		if !importColumns[key] {
			result.Unknown = append(result.Unknown, h)
		}
	}
	for _, required := range []string{"NAME", "EMAIL", "PHONE"} {
		if _, ok := cols[required]; !ok {
			return ImportMembersResult{}, checkin.NewError(checkin.CodeValidation, "CSV missing required column: "+required)
		}
	}
	get := func(row []string, col string) string {
		i, ok := cols[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rowNum := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++
		if err != nil {
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: err.Error()})
			continue
		}
		result.Total++

		m, err := importRow(ctx, row, get, input, deps)
		switch {
		case errors.Is(err, errImportSkip):
			result.Skipped++
			continue
		case err != nil:
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: err.Error()})
			continue
		}
		if !input.DryRun {
			if err := deps.MemberStore.Save(ctx, m.Member); err != nil {
				slog.Error("members_import_save_failed", "row", rowNum, "email", m.Email, "error", err)
				result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: "save failed"})
				continue
			}
		}
		if m.existing {
			result.Updated++
		} else {
			result.Created++
		}
	}

	slog.Info("members_import",
		"dry_run", input.DryRun,
		"update_mode", input.UpdateMode,
		"total", result.Total,
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"errors", len(result.Errors),
	)
	return result, nil
}

var errImportSkip = errors.New("member exists")

type importedMember struct {
	member.Member
	existing bool
}

func importRow(ctx context.Context, row []string, get func([]string, string) string, input ImportMembersInput, deps ImportMembersDeps) (importedMember, error) {
	now := deps.Clock.now()
	email := checkin.NormalizeEmail(get(row, "EMAIL"))

	out := importedMember{Member: member.Member{CreatedAt: now, JoinedAt: now}}
	existing, err := deps.MemberStore.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if !input.UpdateMode {
			return importedMember{}, errImportSkip
		}
		out = importedMember{Member: existing, existing: true}
	case !errors.Is(err, member.ErrNotFound):
		return importedMember{}, fmt.Errorf("look up %s: %w", email, err)
	default:
		out.ID = deps.NewID.next()
	}

	out.Name = get(row, "NAME")
	out.Email = email
	out.Phone = get(row, "PHONE")
	if g := get(row, "GENDER"); g != "" {
		out.Gender = strings.ToLower(g)
	}
	if g := get(row, "GROUP"); g != "" {
		out.GroupName = g
	}
	if s := get(row, "STATUS"); s != "" {
		out.Status = strings.ToLower(s)
	}
	if j := get(row, "JOINED"); j != "" {
		joined, err := time.Parse(checkin.DateLayout, j)
		if err != nil {
			return importedMember{}, fmt.Errorf("joined must be YYYY-MM-DD, got %q", j)
		}
		out.JoinedAt = joined
	}
	out.Normalize()
	if err := out.Validate(); err != nil {
		return importedMember{}, err
	}
	return out, nil
}
