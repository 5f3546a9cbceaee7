// Package eligibility implements the hard-filter rule evaluator that decides
// whether a student can apply to a scholarship at all. It is pure and
// stateless: callers pass the profile and the scholarship criteria, and the
// evaluator never touches the network or the database.
package eligibility

import (
	"strings"

	"scholarship-workers/internal/models"
)

// Options controls evaluation behavior. The default (zero value) stops at the
// first failed criterion; Exhaustive collects every failure so the UI can
// show students everything that disqualified them.
type Options struct {
	Exhaustive bool
}

// FailedCriterion describes a single requirement the student did not meet.
// Actual is nil when the profile never provided the value.
type FailedCriterion struct {
	Dimension string      `json:"dimension"`
	Criterion string      `json:"criterion"`
	Required  interface{} `json:"required"`
	Actual    interface{} `json:"actual"`
}

type Result struct {
	Eligible       bool              `json:"eligible"`
	FailedCriteria []FailedCriterion `json:"failedCriteria,omitempty"`
}

const (
	dimAcademic    = "academic"
	dimDemographic = "demographic"
	dimMajor       = "major"
	dimExperience  = "experience"
	dimFinancial   = "financial"
	dimSpecial     = "special"
)

// Evaluate checks a profile against a scholarship's criteria. Categories are
// evaluated in a fixed order: academic, demographic, major, experience,
// financial, special. A nil criteria object, nil group or nil field places no
// constraint. Missing profile values fail any criterion that needs them.
func Evaluate(profile *models.StudentProfile, criteria *models.EligibilityCriteria, opts Options) Result {
	if criteria == nil {
		return Result{Eligible: true}
	}
	if profile == nil {
		profile = &models.StudentProfile{}
	}

	e := &evaluator{profile: profile, opts: opts}

	checks := []func(*models.EligibilityCriteria) bool{
		e.checkAcademic,
		e.checkDemographic,
		e.checkMajor,
		e.checkExperience,
		e.checkFinancial,
		e.checkSpecial,
	}

	for _, check := range checks {
		if stop := check(criteria); stop {
			break
		}
	}

	return Result{
		Eligible:       len(e.failures) == 0,
		FailedCriteria: e.failures,
	}
}

// FilterScholarships returns the subset of scholarships the student is
// eligible for, preserving input order. Scholarships without criteria pass.
func FilterScholarships(profile *models.StudentProfile, scholarships []models.Scholarship, opts Options) []models.Scholarship {
	eligible := make([]models.Scholarship, 0, len(scholarships))
	for _, s := range scholarships {
		result := Evaluate(profile, s.Criteria, opts)
		if result.Eligible {
			eligible = append(eligible, s)
		}
	}
	return eligible
}

type evaluator struct {
	profile  *models.StudentProfile
	opts     Options
	failures []FailedCriterion
}

// fail records a failure and reports whether evaluation should stop.
func (e *evaluator) fail(dimension, criterion string, required, actual interface{}) bool {
	e.failures = append(e.failures, FailedCriterion{
		Dimension: dimension,
		Criterion: criterion,
		Required:  required,
		Actual:    actual,
	})
	return !e.opts.Exhaustive
}

func (e *evaluator) stopped() bool {
	return !e.opts.Exhaustive && len(e.failures) > 0
}

func (e *evaluator) checkAcademic(c *models.EligibilityCriteria) bool {
	a := c.Academic
	if a == nil {
		return false
	}
	p := e.profile

	if a.MinGPA != nil {
		gpa := normalizedGPA(p)
		if gpa == nil {
			if e.fail(dimAcademic, "minGpa", *a.MinGPA, nil) {
				return true
			}
		} else if *gpa < *a.MinGPA {
			if e.fail(dimAcademic, "minGpa", *a.MinGPA, *gpa) {
				return true
			}
		}
	}

	if a.MaxGPA != nil {
		gpa := normalizedGPA(p)
		if gpa == nil {
			if e.fail(dimAcademic, "maxGpa", *a.MaxGPA, nil) {
				return true
			}
		} else if *gpa > *a.MaxGPA {
			if e.fail(dimAcademic, "maxGpa", *a.MaxGPA, *gpa) {
				return true
			}
		}
	}

	if stop := e.checkMinInt(dimAcademic, "minSatScore", a.MinSATScore, p.SATScore); stop {
		return true
	}
	if stop := e.checkMinInt(dimAcademic, "minActScore", a.MinACTScore, p.ACTScore); stop {
		return true
	}

	if a.TopClassRankPercent != nil {
		if p.ClassRank == nil || p.ClassSize == nil || *p.ClassSize <= 0 {
			if e.fail(dimAcademic, "topClassRankPercent", *a.TopClassRankPercent, nil) {
				return true
			}
		} else {
			percentile := Percentile(*p.ClassRank, *p.ClassSize)
			if percentile < 100-*a.TopClassRankPercent {
				if e.fail(dimAcademic, "topClassRankPercent", *a.TopClassRankPercent, percentile) {
					return true
				}
			}
		}
	}

	if stop := e.checkStringInList(dimAcademic, "gradeLevels", a.GradeLevels, p.GradeLevel); stop {
		return true
	}

	return e.stopped()
}

func (e *evaluator) checkDemographic(c *models.EligibilityCriteria) bool {
	d := c.Demographic
	if d == nil {
		return false
	}
	p := e.profile

	if stop := e.checkStringInList(dimDemographic, "genders", d.Genders, p.Gender); stop {
		return true
	}
	if stop := e.checkListIntersects(dimDemographic, "ethnicities", d.Ethnicities, p.Ethnicity); stop {
		return true
	}
	if stop := e.checkStringInList(dimDemographic, "states", d.States, p.State); stop {
		return true
	}
	if stop := e.checkStringInList(dimDemographic, "citizenships", d.Citizenships, p.Citizenship); stop {
		return true
	}
	if stop := e.checkMinInt(dimDemographic, "minAge", d.MinAge, p.Age); stop {
		return true
	}
	if stop := e.checkMaxInt(dimDemographic, "maxAge", d.MaxAge, p.Age); stop {
		return true
	}
	if stop := e.checkBool(dimDemographic, "firstGeneration", d.FirstGeneration, p.FirstGeneration); stop {
		return true
	}

	return e.stopped()
}

func (e *evaluator) checkMajor(c *models.EligibilityCriteria) bool {
	m := c.Major
	if m == nil {
		return false
	}
	p := e.profile

	if stop := e.checkStringInList(dimMajor, "majors", m.Majors, p.Major); stop {
		return true
	}
	if stop := e.checkListIntersects(dimMajor, "fieldsOfStudy", m.FieldsOfStudy, p.FieldsOfStudy); stop {
		return true
	}

	if len(m.CareerGoalKeywords) > 0 {
		if p.CareerGoal == nil {
			if e.fail(dimMajor, "careerGoalKeywords", m.CareerGoalKeywords, nil) {
				return true
			}
		} else if !containsAnyKeyword(*p.CareerGoal, m.CareerGoalKeywords) {
			if e.fail(dimMajor, "careerGoalKeywords", m.CareerGoalKeywords, *p.CareerGoal) {
				return true
			}
		}
	}

	return e.stopped()
}

func (e *evaluator) checkExperience(c *models.EligibilityCriteria) bool {
	x := c.Experience
	if x == nil {
		return false
	}
	p := e.profile

	if stop := e.checkMinInt(dimExperience, "minVolunteerHours", x.MinVolunteerHours, p.VolunteerHours); stop {
		return true
	}
	if stop := e.checkBool(dimExperience, "requiresLeadership", x.RequiresLeadership, p.HasLeadership); stop {
		return true
	}
	if stop := e.checkMinInt(dimExperience, "minWorkExperienceYears", x.MinWorkExperienceYears, p.WorkExperienceYears); stop {
		return true
	}
	if stop := e.checkListIntersects(dimExperience, "activities", x.Activities, p.Activities); stop {
		return true
	}

	return e.stopped()
}

func (e *evaluator) checkFinancial(c *models.EligibilityCriteria) bool {
	f := c.Financial
	if f == nil {
		return false
	}
	p := e.profile

	if f.MaxHouseholdIncome != nil {
		if p.HouseholdIncome == nil {
			if e.fail(dimFinancial, "maxHouseholdIncome", *f.MaxHouseholdIncome, nil) {
				return true
			}
		} else if *p.HouseholdIncome > *f.MaxHouseholdIncome {
			if e.fail(dimFinancial, "maxHouseholdIncome", *f.MaxHouseholdIncome, *p.HouseholdIncome) {
				return true
			}
		}
	}

	if stop := e.checkBool(dimFinancial, "requiresFinancialNeed", f.RequiresFinancialNeed, p.FinancialNeed); stop {
		return true
	}
	if stop := e.checkBool(dimFinancial, "requiresFafsa", f.RequiresFAFSA, p.FAFSACompleted); stop {
		return true
	}

	return e.stopped()
}

func (e *evaluator) checkSpecial(c *models.EligibilityCriteria) bool {
	s := c.Special
	if s == nil {
		return false
	}
	p := e.profile

	if stop := e.checkBool(dimSpecial, "requiresDisability", s.RequiresDisability, p.HasDisability); stop {
		return true
	}
	if stop := e.checkStringInList(dimSpecial, "militaryAffiliations", s.MilitaryAffiliations, p.MilitaryAffiliation); stop {
		return true
	}
	if stop := e.checkListIntersects(dimSpecial, "affiliations", s.Affiliations, p.Affiliations); stop {
		return true
	}

	return e.stopped()
}

func (e *evaluator) checkMinInt(dim, name string, required, actual *int) bool {
	if required == nil {
		return false
	}
	if actual == nil {
		return e.fail(dim, name, *required, nil)
	}
	if *actual < *required {
		return e.fail(dim, name, *required, *actual)
	}
	return false
}

func (e *evaluator) checkMaxInt(dim, name string, required, actual *int) bool {
	if required == nil {
		return false
	}
	if actual == nil {
		return e.fail(dim, name, *required, nil)
	}
	if *actual > *required {
		return e.fail(dim, name, *required, *actual)
	}
	return false
}

func (e *evaluator) checkBool(dim, name string, required, actual *bool) bool {
	if required == nil {
		return false
	}
	if actual == nil {
		return e.fail(dim, name, *required, nil)
	}
	if *actual != *required {
		return e.fail(dim, name, *required, *actual)
	}
	return false
}

func (e *evaluator) checkStringInList(dim, name string, required []string, actual *string) bool {
	if len(required) == 0 {
		return false
	}
	if actual == nil {
		return e.fail(dim, name, required, nil)
	}
	if !listContains(required, *actual) {
		return e.fail(dim, name, required, *actual)
	}
	return false
}

func (e *evaluator) checkListIntersects(dim, name string, required, actual []string) bool {
	if len(required) == 0 {
		return false
	}
	if len(actual) == 0 {
		return e.fail(dim, name, required, nil)
	}
	for _, a := range actual {
		if listContains(required, a) {
			return false
		}
	}
	return e.fail(dim, name, required, actual)
}

// Percentile converts a class rank into a top-of-class percentile.
// Rank 1 of 100 yields 100, rank 100 of 100 yields 1.
func Percentile(classRank, classSize int) float64 {
	return float64(classSize-classRank+1) / float64(classSize) * 100
}

// normalizedGPA maps the student's GPA onto the 4.0 scale criteria are
// written in. A missing scale is assumed to already be 4.0.
func normalizedGPA(p *models.StudentProfile) *float64 {
	if p.GPA == nil {
		return nil
	}
	gpa := *p.GPA
	if p.GPAScale != nil && *p.GPAScale > 0 && *p.GPAScale != 4.0 {
		gpa = gpa / *p.GPAScale * 4.0
	}
	return &gpa
}

func listContains(list []string, value string) bool {
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), strings.TrimSpace(value)) {
			return true
		}
	}
	return false
}

func containsAnyKeyword(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(strings.TrimSpace(kw))) {
			return true
		}
	}
	return false
}
