package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/FaithCommunity/initializers"
	"github.com/FaithCommunity/models"
	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

const dateLayout = "2006-01-02"

// programFields is a ProgramInput after parsing and normalization.
type programFields struct {
	startDate     *time.Time
	endDate       *time.Time
	eventDates    []time.Time
	images        []string
	collaborators []int
}

type invitedCollaborator struct {
	collaborationID int
	adminID         int
}

// ProgramFilter narrows the public program listing.
type ProgramFilter struct {
	Status   string
	Category string
	Featured bool
}

func normalizeProgramInput(input models.ProgramInput, ownerAdminID int) (programFields, error) {
	var f programFields

	parse := func(s string) (*time.Time, error) {
		if strings.TrimSpace(s) == "" {
			return nil, nil
		}
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", s, err)
		}
		return &t, nil
	}

	var err error
	if f.startDate, err = parse(input.Event_Start_Date); err != nil {
		return f, err
	}
	if f.endDate, err = parse(input.Event_End_Date); err != nil {
		return f, err
	}
	if f.startDate != nil && f.endDate == nil {
		f.endDate = f.startDate
	}
	if f.startDate != nil && f.endDate != nil && f.endDate.Before(*f.startDate) {
		return f, ErrInvalidDateRange
	}

	seenDates := map[string]bool{}
	for _, d := range input.Event_Dates {
		t, err := parse(d)
		if err != nil {
			return f, err
		}
		if t == nil || seenDates[d] {
			continue
		}
		seenDates[d] = true
		f.eventDates = append(f.eventDates, *t)
	}
	sort.Slice(f.eventDates, func(i, j int) bool { return f.eventDates[i].Before(f.eventDates[j]) })

	for _, img := range input.Additional_Images {
		if img = strings.TrimSpace(img); img != "" {
			f.images = append(f.images, img)
		}
	}

	seenAdmins := map[int]bool{ownerAdminID: true}
	for _, id := range input.Collaborators {
		if seenAdmins[id] {
			continue
		}
		seenAdmins[id] = true
		f.collaborators = append(f.collaborators, id)
	}

	return f, nil
}

// CreateProgram stores a new program as unapproved together with its children
// and the programs submission that will approve it. Invitations and the
// program.created broadcast go out after commit.
func CreateProgram(ctx context.Context, admin models.Admin, input models.ProgramInput, image *string) (models.Program, error) {
	if admin.Organization_ID == nil {
		return models.Program{}, ErrNotProgramOwner
	}
	fields, err := normalizeProgramInput(input, admin.ID)
	if err != nil {
		return models.Program{}, err
	}

	status := input.Status
	if status == "" {
		status = models.ProgramStatusUpcoming
	}
	acceptsVolunteers := true
	if input.Accepts_Volunteers != nil {
		acceptsVolunteers = *input.Accepts_Volunteers
	}
	if image == nil && input.Image != "" {
		image = &input.Image
	}

	program := models.Program{
		Organization_ID:    *admin.Organization_ID,
		Title:              strings.TrimSpace(input.Title),
		Description:        input.Description,
		Category:           input.Category,
		Status:             status,
		Image:              image,
		Event_Start_Date:   fields.startDate,
		Event_End_Date:     fields.endDate,
		Is_Approved:        false,
		Is_Collaborative:   len(fields.collaborators) > 0,
		Accepts_Volunteers: acceptsVolunteers,
		Created_By:         &admin.ID,
	}

	var invited []invitedCollaborator
	err = inTransaction(ctx, func(tx *goqu.TxDatabase) error {
		if err := checkCollaboratorsExist(ctx, tx, fields.collaborators); err != nil {
			return err
		}

		slug, err := UniqueSlug(ctx, tx, SlugScope{Table: "programs_projects"}, program.Title)
		if err != nil {
			return err
		}
		program.Slug = slug

		if _, err := tx.Insert("programs_projects").
			Rows(program).
			Returning("id").
			Executor().ScanValContext(ctx, &program.ID); err != nil {
			if IsUniqueViolation(err) {
				return ErrDuplicateSlug
			}
			return err
		}

		if err := replaceProgramChildren(ctx, tx, program.ID, fields); err != nil {
			return err
		}

		if invited, err = inviteCollaborators(ctx, tx, program, admin.ID, fields.collaborators); err != nil {
			return err
		}

		proposal, err := models.NewJSONData(models.ProgramProposal{
			Program_ID: program.ID,
			Title:      program.Title,
			Slug:       program.Slug,
		})
		if err != nil {
			return err
		}
		_, err = RecordSubmission(ctx, tx, models.Submission{
			Section:         models.SubmissionSectionPrograms,
			Organization_ID: program.Organization_ID,
			Submitted_By:    &admin.ID,
			Proposed_Data:   proposal,
		})
		return err
	})
	if err != nil {
		return models.Program{}, err
	}

	announceInvitations(ctx, admin, program, invited)
	PublishEvent(ctx, models.NotificationEvent{
		Type:            models.EventProgramCreated,
		Program_ID:      program.ID,
		Organization_ID: program.Organization_ID,
		Actor_Admin_ID:  admin.ID,
	})

	return program, nil
}

// UpdateProgram overwrites the program's fields, replaces event dates and
// additional images, and diffs the collaborator list so answered invitations
// keep their history. The approval flag is not touched.
func UpdateProgram(ctx context.Context, admin models.Admin, id int, input models.ProgramInput, image *string) (models.Program, error) {
	fields, err := normalizeProgramInput(input, admin.ID)
	if err != nil {
		return models.Program{}, err
	}
	if image == nil && input.Image != "" {
		image = &input.Image
	}

	var (
		program  models.Program
		oldImage *string
		invited  []invitedCollaborator
	)
	err = inTransaction(ctx, func(tx *goqu.TxDatabase) error {
		found, err := tx.From("programs_projects").
			Where(goqu.C("id").Eq(id)).
			ForUpdate(exp.Wait).
			ScanStructContext(ctx, &program)
		if err != nil {
			return err
		}
		if !found {
			return ErrProgramNotFound
		}
		if !admin.IsSuperadmin() && !admin.OwnsOrganization(program.Organization_ID) {
			return ErrNotProgramOwner
		}
		// A superadmin edit must not invite the program's own creator.
		if program.Created_By != nil {
			fields.collaborators = withoutAdmin(fields.collaborators, *program.Created_By)
		}

		if err := checkCollaboratorsExist(ctx, tx, fields.collaborators); err != nil {
			return err
		}

		title := strings.TrimSpace(input.Title)
		if title != program.Title {
			slug, err := UniqueSlug(ctx, tx, SlugScope{Table: "programs_projects", ExcludeID: id}, title)
			if err != nil {
				return err
			}
			program.Slug = slug
		}

		program.Title = title
		program.Description = input.Description
		program.Category = input.Category
		if input.Status != "" {
			program.Status = input.Status
		}
		if input.Accepts_Volunteers != nil {
			program.Accepts_Volunteers = *input.Accepts_Volunteers
		}
		program.Event_Start_Date = fields.startDate
		program.Event_End_Date = fields.endDate
		program.Is_Collaborative = len(fields.collaborators) > 0

		record := goqu.Record{
			"title":              program.Title,
			"slug":               program.Slug,
			"description":        program.Description,
			"category":           program.Category,
			"status":             program.Status,
			"event_start_date":   program.Event_Start_Date,
			"event_end_date":     program.Event_End_Date,
			"is_collaborative":   program.Is_Collaborative,
			"accepts_volunteers": program.Accepts_Volunteers,
			"updated_at":         goqu.L("NOW()"),
		}
		if image != nil && (program.Image == nil || *program.Image != *image) {
			oldImage = program.Image
			program.Image = image
			record["image"] = *image
		}

		if _, err := tx.Update("programs_projects").
			Set(record).
			Where(goqu.C("id").Eq(id)).
			Executor().ExecContext(ctx); err != nil {
			if IsUniqueViolation(err) {
				return ErrDuplicateSlug
			}
			return err
		}

		if _, err := tx.Delete("program_event_dates").Where(goqu.C("program_id").Eq(id)).Executor().ExecContext(ctx); err != nil {
			return err
		}
		if _, err := tx.Delete("program_additional_images").Where(goqu.C("program_id").Eq(id)).Executor().ExecContext(ctx); err != nil {
			return err
		}
		if err := replaceProgramChildren(ctx, tx, id, fields); err != nil {
			return err
		}

		invited, err = syncCollaborators(ctx, tx, program, admin.ID, fields.collaborators)
		return err
	})
	if err != nil {
		return models.Program{}, err
	}

	DeleteImageQuietly(ctx, oldImage)
	announceInvitations(ctx, admin, program, invited)
	PublishEvent(ctx, models.NotificationEvent{
		Type:            models.EventProgramUpdated,
		Program_ID:      program.ID,
		Organization_ID: program.Organization_ID,
		Actor_Admin_ID:  admin.ID,
	})

	return program, nil
}

// SetProgramStatus is the direct Active/Completed transition.
func SetProgramStatus(ctx context.Context, admin models.Admin, id int, status string) error {
	if err := authorizeProgram(ctx, admin, id); err != nil {
		return err
	}
	_, err := initializers.DB.Update("programs_projects").
		Set(goqu.Record{"status": status, "updated_at": goqu.L("NOW()")}).
		Where(goqu.C("id").Eq(id)).
		Executor().ExecContext(ctx)
	return err
}

// ToggleFeatured flips is_featured and returns the new value.
func ToggleFeatured(ctx context.Context, id int) (bool, error) {
	return toggleProgramFlag(ctx, id, "is_featured")
}

// ToggleVolunteers flips accepts_volunteers for a program the admin owns.
func ToggleVolunteers(ctx context.Context, admin models.Admin, id int) (bool, error) {
	if err := authorizeProgram(ctx, admin, id); err != nil {
		return false, err
	}
	return toggleProgramFlag(ctx, id, "accepts_volunteers")
}

func toggleProgramFlag(ctx context.Context, id int, column string) (bool, error) {
	var value bool
	found, err := initializers.DB.Update("programs_projects").
		Set(goqu.Record{
			column:       goqu.L(fmt.Sprintf("NOT %s", column)),
			"updated_at": goqu.L("NOW()"),
		}).
		Where(goqu.C("id").Eq(id)).
		Returning(column).
		Executor().ScanValContext(ctx, &value)
	if err != nil {
		return false, err
	}
	if !found {
		return false, ErrProgramNotFound
	}
	return value, nil
}

func authorizeProgram(ctx context.Context, admin models.Admin, id int) error {
	var orgID int
	found, err := initializers.DB.From("programs_projects").
		Select("organization_id").
		Where(goqu.C("id").Eq(id)).
		ScanValContext(ctx, &orgID)
	if err != nil {
		return err
	}
	if !found {
		return ErrProgramNotFound
	}
	if !admin.IsSuperadmin() && !admin.OwnsOrganization(orgID) {
		return ErrNotProgramOwner
	}
	return nil
}

// DeleteProgram removes either a program row (children cascade) or a pending
// programs submission, depending on target.Kind.
func DeleteProgram(ctx context.Context, admin models.Admin, target models.ProgramDeleteTarget) error {
	switch target.Kind {
	case models.DeleteKindSubmission:
		_, err := DeleteSubmission(ctx, target.ID, func(sub models.Submission) error {
			if sub.Section != models.SubmissionSectionPrograms {
				return ErrSubmissionNotFound
			}
			if !admin.IsSuperadmin() && !admin.OwnsOrganization(sub.Organization_ID) {
				return ErrNotProgramOwner
			}
			return nil
		})
		return err

	case models.DeleteKindProgram, "":
		var program models.Program
		err := inTransaction(ctx, func(tx *goqu.TxDatabase) error {
			found, err := tx.From("programs_projects").
				Where(goqu.C("id").Eq(target.ID)).
				ForUpdate(exp.Wait).
				ScanStructContext(ctx, &program)
			if err != nil {
				return err
			}
			if !found {
				return ErrProgramNotFound
			}
			if !admin.IsSuperadmin() && !admin.OwnsOrganization(program.Organization_ID) {
				return ErrNotProgramOwner
			}

			if err := deletePendingProgramSubmissions(ctx, tx, program.ID); err != nil {
				return err
			}
			_, err = tx.Delete("programs_projects").
				Where(goqu.C("id").Eq(program.ID)).
				Executor().ExecContext(ctx)
			return err
		})
		if err != nil {
			return err
		}
		DeleteImageQuietly(ctx, program.Image)
		return nil
	}

	return fmt.Errorf("unknown delete kind %q", target.Kind)
}

func withoutAdmin(ids []int, adminID int) []int {
	out := ids[:0:0]
	for _, id := range ids {
		if id != adminID {
			out = append(out, id)
		}
	}
	return out
}

func checkCollaboratorsExist(ctx context.Context, tx *goqu.TxDatabase, adminIDs []int) error {
	if len(adminIDs) == 0 {
		return nil
	}
	var count int
	if _, err := tx.From("admins").
		Select(goqu.COUNT("*")).
		Where(
			goqu.C("id").In(adminIDs),
			goqu.C("is_active").IsTrue(),
		).
		ScanValContext(ctx, &count); err != nil {
		return err
	}
	if count != len(adminIDs) {
		return ErrUnknownCollaborator
	}
	return nil
}

func replaceProgramChildren(ctx context.Context, tx *goqu.TxDatabase, programID int, fields programFields) error {
	if len(fields.eventDates) > 0 {
		rows := make([]interface{}, 0, len(fields.eventDates))
		for _, d := range fields.eventDates {
			rows = append(rows, models.ProgramEventDate{Program_ID: programID, Event_Date: d})
		}
		if _, err := tx.Insert("program_event_dates").Rows(rows...).Executor().ExecContext(ctx); err != nil {
			return err
		}
	}

	if len(fields.images) > 0 {
		rows := make([]interface{}, 0, len(fields.images))
		for i, url := range fields.images {
			rows = append(rows, models.ProgramAdditionalImage{Program_ID: programID, Image_URL: url, Position: i})
		}
		if _, err := tx.Insert("program_additional_images").Rows(rows...).Executor().ExecContext(ctx); err != nil {
			return err
		}
	}
	return nil
}

func inviteCollaborators(ctx context.Context, tx *goqu.TxDatabase, program models.Program, inviterID int, adminIDs []int) ([]invitedCollaborator, error) {
	invited := make([]invitedCollaborator, 0, len(adminIDs))
	for _, adminID := range adminIDs {
		collab := models.ProgramCollaboration{
			Program_ID:            program.ID,
			Collaborator_Admin_ID: adminID,
			Invited_By_Admin_ID:   &inviterID,
			Status:                models.CollaborationStatusPending,
			Program_Title:         program.Title,
		}
		var id int
		if _, err := tx.Insert("program_collaborations").
			Rows(collab).
			Returning("id").
			Executor().ScanValContext(ctx, &id); err != nil {
			return nil, err
		}
		invited = append(invited, invitedCollaborator{collaborationID: id, adminID: adminID})
	}
	return invited, nil
}

// syncCollaborators removes collaborators that were dropped from the list and
// invites the ones that were added. Existing rows keep their status.
func syncCollaborators(ctx context.Context, tx *goqu.TxDatabase, program models.Program, inviterID int, desired []int) ([]invitedCollaborator, error) {
	var existing []int
	if err := tx.From("program_collaborations").
		Select("collaborator_admin_id").
		Where(goqu.C("program_id").Eq(program.ID)).
		ScanValsContext(ctx, &existing); err != nil {
		return nil, err
	}

	want := make(map[int]bool, len(desired))
	for _, id := range desired {
		want[id] = true
	}
	have := make(map[int]bool, len(existing))
	var removed []int
	for _, id := range existing {
		have[id] = true
		if !want[id] {
			removed = append(removed, id)
		}
	}
	var added []int
	for _, id := range desired {
		if !have[id] {
			added = append(added, id)
		}
	}

	if len(removed) > 0 {
		if _, err := tx.Delete("program_collaborations").
			Where(
				goqu.C("program_id").Eq(program.ID),
				goqu.C("collaborator_admin_id").In(removed),
			).
			Executor().ExecContext(ctx); err != nil {
			return nil, err
		}
	}

	if _, err := tx.Update("program_collaborations").
		Set(goqu.Record{"program_title": program.Title}).
		Where(goqu.C("program_id").Eq(program.ID)).
		Executor().ExecContext(ctx); err != nil {
		return nil, err
	}

	return inviteCollaborators(ctx, tx, program, inviterID, added)
}

// announceInvitations writes the invitee's notification row and queues the
// invitation email. Both are best effort.
func announceInvitations(ctx context.Context, inviter models.Admin, program models.Program, invited []invitedCollaborator) {
	for _, inv := range invited {
		CreateNotification(ctx, models.Notification{
			Admin_ID:  inv.adminID,
			Type:      models.NotificationTypeCollaborationInvite,
			Message:   fmt.Sprintf("You were invited to collaborate on %q", program.Title),
			Section:   models.SubmissionSectionPrograms,
			Target_ID: &program.ID,
		})
		PublishEvent(ctx, models.NotificationEvent{
			Type:             models.EventCollaborationInvited,
			Program_ID:       program.ID,
			Organization_ID:  program.Organization_ID,
			Collaboration_ID: inv.collaborationID,
			Actor_Admin_ID:   inviter.ID,
			Target_Admin_ID:  inv.adminID,
		})
	}
}

func programDetails() *goqu.SelectDataset {
	return initializers.DB.From("programs_projects").
		Select(
			goqu.T("programs_projects").All(),
			goqu.I("organizations.name").As("org_name"),
			goqu.I("organizations.acronym").As("org_acronym"),
			goqu.I("organizations.logo").As("org_logo"),
		).
		Join(goqu.T("organizations"), goqu.On(goqu.Ex{"programs_projects.organization_id": goqu.I("organizations.id")}))
}

// ListPublicPrograms returns approved programs only, with accepted collaborators.
func ListPublicPrograms(ctx context.Context, filter ProgramFilter) ([]models.ProgramDetail, error) {
	query := programDetails().
		Where(goqu.I("programs_projects.is_approved").IsTrue()).
		Order(
			goqu.I("programs_projects.event_start_date").Desc().NullsLast(),
			goqu.I("programs_projects.created_at").Desc(),
		)
	if filter.Status != "" {
		query = query.Where(goqu.I("programs_projects.status").Eq(filter.Status))
	}
	if filter.Category != "" {
		query = query.Where(goqu.I("programs_projects.category").Eq(filter.Category))
	}
	if filter.Featured {
		query = query.Where(goqu.I("programs_projects.is_featured").IsTrue())
	}

	programs := []models.ProgramDetail{}
	if err := query.ScanStructsContext(ctx, &programs); err != nil {
		return nil, err
	}
	return programs, loadProgramChildren(ctx, programs, true)
}

func GetPublicProgramBySlug(ctx context.Context, slug string) (models.ProgramDetail, error) {
	var program models.ProgramDetail
	found, err := programDetails().
		Where(
			goqu.I("programs_projects.slug").Eq(slug),
			goqu.I("programs_projects.is_approved").IsTrue(),
		).
		ScanStructContext(ctx, &program)
	if err != nil {
		return models.ProgramDetail{}, err
	}
	if !found {
		return models.ProgramDetail{}, ErrProgramNotFound
	}

	programs := []models.ProgramDetail{program}
	if err := loadProgramChildren(ctx, programs, true); err != nil {
		return models.ProgramDetail{}, err
	}
	return programs[0], nil
}

type collaboratingProgram struct {
	models.ProgramDetail
	Membership string `db:"collaboration_status"`
}

// ListManagedPrograms returns the organization's own programs in any approval
// state followed by programs the admin has accepted an invitation to.
func ListManagedPrograms(ctx context.Context, admin models.Admin) ([]models.ProgramDetail, error) {
	programs := []models.ProgramDetail{}
	if admin.Organization_ID != nil {
		if err := programDetails().
			Where(goqu.I("programs_projects.organization_id").Eq(*admin.Organization_ID)).
			Order(goqu.I("programs_projects.created_at").Desc()).
			ScanStructsContext(ctx, &programs); err != nil {
			return nil, err
		}
	}

	var shared []collaboratingProgram
	if err := programDetails().
		SelectAppend(goqu.I("program_collaborations.status").As("collaboration_status")).
		Join(goqu.T("program_collaborations"), goqu.On(goqu.Ex{"program_collaborations.program_id": goqu.I("programs_projects.id")})).
		Where(
			goqu.I("program_collaborations.collaborator_admin_id").Eq(admin.ID),
			goqu.I("program_collaborations.status").Eq(models.CollaborationStatusAccepted),
		).
		Order(goqu.I("programs_projects.created_at").Desc()).
		ScanStructsContext(ctx, &shared); err != nil {
		return nil, err
	}
	for _, p := range shared {
		p.ProgramDetail.Collaboration_Status = p.Membership
		programs = append(programs, p.ProgramDetail)
	}

	return programs, loadProgramChildren(ctx, programs, false)
}

// ListAllPrograms is the superadmin view across organizations.
func ListAllPrograms(ctx context.Context) ([]models.ProgramDetail, error) {
	programs := []models.ProgramDetail{}
	if err := programDetails().
		Order(goqu.I("programs_projects.created_at").Desc()).
		ScanStructsContext(ctx, &programs); err != nil {
		return nil, err
	}
	return programs, loadProgramChildren(ctx, programs, false)
}

// loadProgramChildren fills event dates, additional images and collaborators.
// With acceptedOnly, pending and declined collaborators are left out.
func loadProgramChildren(ctx context.Context, programs []models.ProgramDetail, acceptedOnly bool) error {
	if len(programs) == 0 {
		return nil
	}
	ids := make([]int, 0, len(programs))
	for _, p := range programs {
		ids = append(ids, p.ID)
	}

	var dates []models.ProgramEventDate
	if err := initializers.DB.From("program_event_dates").
		Where(goqu.C("program_id").In(ids)).
		Order(goqu.C("program_id").Asc(), goqu.C("event_date").Asc()).
		ScanStructsContext(ctx, &dates); err != nil {
		return err
	}

	var images []models.ProgramAdditionalImage
	if err := initializers.DB.From("program_additional_images").
		Where(goqu.C("program_id").In(ids)).
		Order(goqu.C("program_id").Asc(), goqu.C("position").Asc()).
		ScanStructsContext(ctx, &images); err != nil {
		return err
	}

	collabQuery := initializers.DB.From("program_collaborations").
		Select(
			goqu.I("program_collaborations.id").As("collaboration_id"),
			goqu.I("program_collaborations.program_id"),
			goqu.I("program_collaborations.collaborator_admin_id"),
			goqu.I("program_collaborations.status"),
			goqu.I("organizations.name").As("org_name"),
			goqu.I("organizations.acronym").As("org_acronym"),
			goqu.I("organizations.logo").As("org_logo"),
		).
		Join(goqu.T("admins"), goqu.On(goqu.Ex{"program_collaborations.collaborator_admin_id": goqu.I("admins.id")})).
		Join(goqu.T("organizations"), goqu.On(goqu.Ex{"admins.organization_id": goqu.I("organizations.id")})).
		Where(goqu.I("program_collaborations.program_id").In(ids)).
		Order(goqu.I("program_collaborations.id").Asc())
	if acceptedOnly {
		collabQuery = collabQuery.Where(goqu.I("program_collaborations.status").Eq(models.CollaborationStatusAccepted))
	}
	var collaborators []models.ProgramCollaborator
	if err := collabQuery.ScanStructsContext(ctx, &collaborators); err != nil {
		return err
	}

	datesByProgram := map[int][]string{}
	for _, d := range dates {
		datesByProgram[d.Program_ID] = append(datesByProgram[d.Program_ID], d.Event_Date.Format(dateLayout))
	}
	imagesByProgram := map[int][]string{}
	for _, img := range images {
		imagesByProgram[img.Program_ID] = append(imagesByProgram[img.Program_ID], img.Image_URL)
	}
	collabsByProgram := map[int][]models.ProgramCollaborator{}
	for _, c := range collaborators {
		collabsByProgram[c.Program_ID] = append(collabsByProgram[c.Program_ID], c)
	}

	for i := range programs {
		p := &programs[i]
		p.Is_Single_Day = p.IsSingleDay()
		p.Event_Dates = datesByProgram[p.ID]
		p.Additional_Images = imagesByProgram[p.ID]
		p.Collaborators = collabsByProgram[p.ID]
		if p.Event_Dates == nil {
			p.Event_Dates = []string{}
		}
		if p.Additional_Images == nil {
			p.Additional_Images = []string{}
		}
		if p.Collaborators == nil {
			p.Collaborators = []models.ProgramCollaborator{}
		}
	}
	return nil
}
