package services

import (
	"context"
	"strings"

	"github.com/FaithCommunity/models"
	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

// UpdateOrganizationInfo is the superadmin's direct edit. The organization row
// and its primary admin's login email change together or not at all.
func UpdateOrganizationInfo(ctx context.Context, orgID int, update models.OrganizationInfoUpdate) (models.Organization, error) {
	acronym := strings.ToUpper(strings.TrimSpace(update.Acronym))
	email := strings.ToLower(strings.TrimSpace(update.Email))

	var org models.Organization
	err := inTransaction(ctx, func(tx *goqu.TxDatabase) error {
		found, err := tx.From("organizations").
			Where(goqu.C("id").Eq(orgID)).
			ForUpdate(exp.Wait).
			ScanStructContext(ctx, &org)
		if err != nil {
			return err
		}
		if !found {
			return ErrOrganizationNotFound
		}

		var taken int
		if _, err := tx.From("organizations").
			Select(goqu.COUNT("*")).
			Where(
				goqu.L("upper(acronym)").Eq(acronym),
				goqu.C("id").Neq(orgID),
			).
			ScanValContext(ctx, &taken); err != nil {
			return err
		}
		if taken > 0 {
			return ErrDuplicateAcronym
		}

		record := goqu.Record{
			"name":       strings.TrimSpace(update.Name),
			"acronym":    acronym,
			"email":      email,
			"updated_at": goqu.L("NOW()"),
		}
		if update.Status != "" {
			record["status"] = update.Status
			org.Status = update.Status
		}
		if _, err := tx.Update("organizations").
			Set(record).
			Where(goqu.C("id").Eq(orgID)).
			Executor().ExecContext(ctx); err != nil {
			if IsUniqueViolation(err) {
				return ErrDuplicateAcronym
			}
			return err
		}

		// Only the primary admin's login mirrors the organization email; other
		// admins of the organization keep their own addresses.
		if email != org.Email {
			if _, err := tx.Update("admins").
				Set(goqu.Record{"email": email, "updated_at": goqu.L("NOW()")}).
				Where(
					goqu.C("organization_id").Eq(orgID),
					goqu.C("role").Eq(models.AdminRoleAdmin),
					goqu.L("lower(email)").Eq(strings.ToLower(org.Email)),
				).
				Executor().ExecContext(ctx); err != nil {
				if IsUniqueViolation(err) {
					return ErrDuplicateEmail
				}
				return err
			}
		}

		org.Name = strings.TrimSpace(update.Name)
		org.Acronym = acronym
		org.Email = email
		return nil
	})
	if err != nil {
		return models.Organization{}, err
	}
	return org, nil
}
