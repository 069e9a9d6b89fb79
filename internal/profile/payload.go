package profile

import (
	"strings"

	"github.com/MKale112/devConnector/internal/models"
)

// Patch is a sparse update of a profile. A nil or blank field leaves the
// stored value unchanged; omission never clears.
type Patch struct {
	Company        *string `json:"company"`
	Website        *string `json:"website"`
	Location       *string `json:"location"`
	Bio            *string `json:"bio"`
	Status         *string `json:"status"`
	Skills         *string `json:"skills"`
	GitHubUsername *string `json:"githubusername"`
	YouTube        *string `json:"youtube"`
	Twitter        *string `json:"twitter"`
	Facebook       *string `json:"facebook"`
	Instagram      *string `json:"instagram"`
	LinkedIn       *string `json:"linkedin"`
}

type patchField struct {
	name string
	val  *string
	dst  *string
}

func (p Patch) fields(dst *models.Profile) []patchField {
	return []patchField{
		{"company", p.Company, &dst.Company},
		{"website", p.Website, &dst.Website},
		{"location", p.Location, &dst.Location},
		{"bio", p.Bio, &dst.Bio},
		{"status", p.Status, &dst.Status},
		{"skills", p.Skills, &dst.Skills},
		{"githubusername", p.GitHubUsername, &dst.GitHubUsername},
		{"youtube", p.YouTube, &dst.Social.YouTube},
		{"twitter", p.Twitter, &dst.Social.Twitter},
		{"facebook", p.Facebook, &dst.Social.Facebook},
		{"instagram", p.Instagram, &dst.Social.Instagram},
		{"linkedin", p.LinkedIn, &dst.Social.LinkedIn},
	}
}

// Apply merges the supplied fields into dst and returns their names.
func (p Patch) Apply(dst *models.Profile) []string {
	var changed []string
	for _, f := range p.fields(dst) {
		if f.val == nil {
			continue
		}
		v := strings.TrimSpace(*f.val)
		if v == "" {
			continue
		}
		*f.dst = v
		changed = append(changed, f.name)
	}
	return changed
}

type ExperienceReq struct {
	Title       string `json:"title" validate:"required" msg:"Title is required"`
	Company     string `json:"company" validate:"required" msg:"Company is required"`
	Location    string `json:"location"`
	From        string `json:"from" validate:"required" msg:"From date is required"`
	To          string `json:"to"`
	Current     bool   `json:"current"`
	Description string `json:"description"`
}

type EducationReq struct {
	School       string `json:"school" validate:"required" msg:"School is required"`
	Degree       string `json:"degree" validate:"required" msg:"Degree is required"`
	FieldOfStudy string `json:"fieldofstudy" validate:"required" msg:"Field of study is required"`
	From         string `json:"from" validate:"required" msg:"From date is required"`
	To           string `json:"to"`
	Current      bool   `json:"current"`
	Description  string `json:"description"`
}
