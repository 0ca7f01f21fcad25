package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/FaithCommunity/initializers"
	"github.com/FaithCommunity/models"
	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const invitationTTL = 7 * 24 * time.Hour

// AdminClaims are the custom claims carried by an admin access token.
type AdminClaims struct {
	Admin_ID        int    `json:"id"`
	Role            string `json:"role"`
	Organization_ID *int   `json:"organization_id,omitempty"`
	jwt.RegisteredClaims
}

func IssueAdminToken(cfg initializers.JWTConfig, admin models.Admin) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(cfg.TTL)

	claims := AdminClaims{
		Admin_ID:        admin.ID,
		Role:            admin.Role,
		Organization_ID: admin.Organization_ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(admin.ID),
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	return signed, expires, err
}

// ParseAdminToken validates signature, expiry, issuer and audience.
func ParseAdminToken(cfg initializers.JWTConfig, tokenString string) (*AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(cfg.Secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if !claims.VerifyIssuer(cfg.Issuer, true) {
		return nil, errors.New("invalid token issuer")
	}
	if !claims.VerifyAudience(cfg.Audience, true) {
		return nil, errors.New("invalid token audience")
	}
	return claims, nil
}

func GetActiveAdmin(ctx context.Context, adminID int) (models.Admin, bool, error) {
	var admin models.Admin
	found, err := initializers.DB.From("admins").
		Where(
			goqu.C("id").Eq(adminID),
			goqu.C("is_active").IsTrue(),
		).
		ScanStructContext(ctx, &admin)
	return admin, found, err
}

// AuthenticateAdmin checks the email/password pair against the stored bcrypt hash.
func AuthenticateAdmin(ctx context.Context, email, password string) (models.Admin, error) {
	var admin models.Admin
	found, err := initializers.DB.From("admins").
		Where(
			goqu.L("lower(email)").Eq(strings.ToLower(strings.TrimSpace(email))),
			goqu.C("is_active").IsTrue(),
		).
		ScanStructContext(ctx, &admin)
	if err != nil {
		return models.Admin{}, err
	}
	if !found {
		return models.Admin{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password_Hash), []byte(password)); err != nil {
		return models.Admin{}, ErrInvalidCredentials
	}
	return admin, nil
}

// CreateInvitation stores a single-use token and asks the notifier to mail it.
func CreateInvitation(ctx context.Context, inviterID int, email string) (models.Invitation, error) {
	invitation := models.Invitation{
		Email:      strings.ToLower(strings.TrimSpace(email)),
		Token:      uuid.NewString(),
		Expires_At: time.Now().Add(invitationTTL),
		Created_By: &inviterID,
	}

	var id int
	_, err := initializers.DB.Insert("invitations").
		Rows(invitation).
		Returning("id").
		Executor().ScanValContext(ctx, &id)
	if err != nil {
		return models.Invitation{}, err
	}
	invitation.ID = id

	return invitation, nil
}

// AcceptInvitation consumes the token and creates the organization and its first
// admin in one transaction.
func AcceptInvitation(ctx context.Context, req models.InvitationAccept) (models.Admin, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.Admin{}, err
	}

	tx, err := initializers.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.Admin{}, err
	}

	var admin models.Admin
	err = tx.Wrap(func() error {
		var invitation models.Invitation
		found, err := tx.From("invitations").
			Where(
				goqu.C("token").Eq(req.Token),
				goqu.C("used").IsFalse(),
				goqu.C("expires_at").Gt(time.Now()),
			).
			ForUpdate(exp.Wait).
			ScanStructContext(ctx, &invitation)
		if err != nil {
			return err
		}
		if !found {
			return ErrInvitationInvalid
		}

		org := models.Organization{
			Name:      strings.TrimSpace(req.Org_Name),
			Acronym:   strings.ToUpper(strings.TrimSpace(req.Org_Acronym)),
			Email:     invitation.Email,
			Org_Color: "#444444",
			Status:    "ACTIVE",
		}
		var orgID int
		if _, err := tx.Insert("organizations").Rows(org).Returning("id").Executor().ScanValContext(ctx, &orgID); err != nil {
			if IsUniqueViolation(err) {
				return ErrDuplicateAcronym
			}
			return err
		}

		admin = models.Admin{
			Organization_ID: &orgID,
			Email:           invitation.Email,
			Password_Hash:   string(hash),
			Role:            models.AdminRoleAdmin,
			Is_Active:       true,
		}
		var adminID int
		if _, err := tx.Insert("admins").Rows(admin).Returning("id").Executor().ScanValContext(ctx, &adminID); err != nil {
			if IsUniqueViolation(err) {
				return ErrDuplicateEmail
			}
			return err
		}
		admin.ID = adminID

		_, err = tx.Update("invitations").
			Set(goqu.Record{"used": true}).
			Where(goqu.C("id").Eq(invitation.ID)).
			Executor().ExecContext(ctx)
		return err
	})
	if err != nil {
		return models.Admin{}, err
	}
	return admin, nil
}

// ListAdminDirectory returns the active org admins a program owner can invite.
func ListAdminDirectory(ctx context.Context, excludeOrgID int) ([]models.AdminDirectoryEntry, error) {
	entries := []models.AdminDirectoryEntry{}
	err := initializers.DB.From("admins").
		Select(
			goqu.I("admins.id"),
			goqu.I("admins.email"),
			goqu.I("admins.organization_id"),
			goqu.I("organizations.name").As("org_name"),
			goqu.I("organizations.acronym").As("org_acronym"),
		).
		Join(goqu.T("organizations"), goqu.On(goqu.Ex{"admins.organization_id": goqu.I("organizations.id")})).
		Where(
			goqu.I("admins.is_active").IsTrue(),
			goqu.I("admins.role").Eq(models.AdminRoleAdmin),
			goqu.I("admins.organization_id").Neq(excludeOrgID),
		).
		Order(goqu.I("organizations.name").Asc()).
		ScanStructsContext(ctx, &entries)
	return entries, err
}
