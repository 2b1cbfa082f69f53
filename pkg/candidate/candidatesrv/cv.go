package candidatesrv

import (
	"context"
	"errors"

	"github.com/Abraxas-365/hireline/pkg/candidate"
	"github.com/Abraxas-365/hireline/pkg/docgen"
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/fsx"
	"github.com/Abraxas-365/hireline/pkg/kernel"
	"github.com/Abraxas-365/hireline/pkg/logx"
)

// CVService prints candidate profiles and keeps them in file storage
type CVService struct {
	docs  *docgen.Generator
	files fsx.FileSystem
	users UserDirectory
}

// NewCVService builds the profile printer. users may be nil.
func NewCVService(docs *docgen.Generator, files fsx.FileSystem, users UserDirectory) *CVService {
	return &CVService{docs: docs, files: files, users: users}
}

// Generate renders the candidate and writes it to cv/<id> with the renderer's extension
func (s *CVService) Generate(ctx context.Context, c *candidate.Candidate) (string, error) {
	doc, err := s.docs.CV(ctx, docgen.CV{
		Name:           c.Name,
		Phone:          c.Phone,
		Email:          c.Email,
		Address:        c.Address,
		Role:           c.Role,
		Location:       c.Location,
		Experience:     c.Experience,
		CurrentSalary:  c.CurrentSalary,
		ExpectedSalary: c.ExpectedSalary,
		Skills:         c.Skills,
		Education:      c.Education,
		Notes:          c.Notes,
		Status:         string(c.Status),
		RecruiterName:  s.recruiterName(ctx, c.RecruiterID),
	})
	if err != nil {
		return "", candidate.ErrCVFailed(err)
	}

	path := "cv/" + c.ID + doc.Ext()
	if err := s.files.WriteFile(ctx, path, doc.Data, doc.ContentType); err != nil {
		return "", candidate.ErrCVFailed(err)
	}
	logx.WithFields(logx.Fields{"candidate_id": c.ID, "path": path}).Info("cv generated")
	return path, nil
}

func (s *CVService) Read(ctx context.Context, path string) ([]byte, string, error) {
	data, err := s.files.ReadFile(ctx, path)
	if err != nil {
		if errors.Is(err, fsx.ErrNotExist) {
			return nil, "", errx.New("cv file is missing", errx.TypeNotFound).WithDetail("path", path)
		}
		return nil, "", errx.Wrap(err, "failed to read cv", errx.TypeInternal)
	}
	return data, docgen.ContentTypeFor(path), nil
}

func (s *CVService) recruiterName(ctx context.Context, id string) string {
	if s.users == nil || id == "" {
		return ""
	}
	u, err := s.users.GetUser(ctx, kernel.UserID(id))
	if err != nil {
		return ""
	}
	return u.Name
}
