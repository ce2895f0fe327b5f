// Package presets provides the built-in pipelines: a programming-language
// learning guide and a recipe planner.
package presets

import (
	"context"
	"fmt"

	"github.com/teilomillet/gochain/chain"
)

const roadmapTemplate = `You are an instructor with years of experience teaching {language} to students.

Create a comprehensive learning roadmap for someone who is a {experience_level} wanting to learn {language}.

The roadmap should include:
1. Prerequisites and setup requirements
2. Fundamental concepts to master first
3. Core programming concepts
4. Intermediate topics and practical applications
5. Advanced concepts and best practices
6. Real-world projects to build
7. Career opportunities and next steps

Use a detailed, well-structured format with clear headings and bullet points.
Focus on practical learning with hands-on examples and projects.

Language: {language}
Experience Level: {experience_level}

Learning Roadmap:`

const scheduleTemplate = `Based on the following learning roadmap for {language}, create a detailed daily learning schedule.

Learning Roadmap:
{roadmap}

Create a daily learning plan considering:
- The learner is a {experience_level}
- The {daily_hours} hours they can dedicate each day
- Daily tasks that break down the roadmap
- Coding exercises for practice
- Breaks and review sessions
- Weekly milestones

Make the schedule realistic, achievable and engaging. Include:
- Daily learning objectives
- Time allocation for each topic
- Practical exercises and coding tasks
- Review and practice sessions
- Weekly goals and checkpoints

Daily Learning Schedule:`

const timelineTemplate = `Based on the learning roadmap and daily schedule for {language}, provide a realistic timeline estimation.

Learning Roadmap:
{roadmap}

Daily Schedule:
{schedule}

Consider:
- Experience level: {experience_level}
- Daily time commitment: {daily_hours} hours
- Complexity of {language}
- Time needed for practice and projects

Provide a detailed timeline that includes:
1. Total estimated time to basic proficiency
2. Time to intermediate level
3. Time to advanced/job-ready level
4. Monthly milestones and achievements
5. Factors that might affect the timeline
6. Tips for staying on track

Be realistic and encouraging. Explain what the proficiency levels mean in practical terms.

Learning Timeline Estimation:`

var supportedLanguages = []string{"Python", "JavaScript", "Java", "C++", "PHP", "Ruby", "TypeScript", "Swift"}

var experienceLevels = []string{"Beginner", "Intermediate", "Expert"}

// SupportedLanguages returns the languages the learning guide accepts.
func SupportedLanguages() []string {
	return append([]string(nil), supportedLanguages...)
}

// ExperienceLevels returns the accepted experience levels.
func ExperienceLevels() []string {
	return append([]string(nil), experienceLevels...)
}

// LearningGuide returns the roadmap → schedule → timeline pipeline.
func LearningGuide() *chain.PipelineSpec {
	return &chain.PipelineSpec{
		Name:            "learning-guide",
		Description:     "Roadmap, daily schedule and timeline for learning a programming language",
		InputVariables:  []string{"language", "experience_level", "daily_hours"},
		OutputVariables: []string{"roadmap", "schedule", "timeline"},
		Stages: []chain.Stage{
			{
				Name:      "roadmap",
				Inputs:    []string{"language", "experience_level"},
				Template:  roadmapTemplate,
				OutputKey: "roadmap",
			},
			{
				Name:      "schedule",
				Inputs:    []string{"language", "roadmap", "experience_level", "daily_hours"},
				Template:  scheduleTemplate,
				OutputKey: "schedule",
			},
			{
				Name:      "timeline",
				Inputs:    []string{"language", "roadmap", "experience_level", "daily_hours", "schedule"},
				Template:  timelineTemplate,
				OutputKey: "timeline",
			},
		},
	}
}

// LearningRequest holds the learning guide's parameters.
type LearningRequest struct {
	Language        string  `json:"language" validate:"required,supported_language"`
	ExperienceLevel string  `json:"experience_level" validate:"required,experience_level"`
	DailyHours      float64 `json:"daily_hours" validate:"gt=0,lte=24"`
}

// Inputs returns the request as pipeline bindings.
func (r LearningRequest) Inputs() map[string]any {
	return map[string]any{
		"language":         r.Language,
		"experience_level": r.ExperienceLevel,
		"daily_hours":      r.DailyHours,
	}
}

// Validate reports the first invalid field with a message fit for users.
func (r LearningRequest) Validate() error {
	return validateRequest(r, map[string]string{
		"Language":        fmt.Sprintf("language must be one of: %s", joinList(supportedLanguages)),
		"ExperienceLevel": fmt.Sprintf("experience level must be one of: %s", joinList(experienceLevels)),
		"DailyHours":      "daily hours must be greater than 0 and at most 24",
	})
}

// GenerateLearningPlan validates req and runs the learning guide. The
// result holds roadmap, schedule and timeline.
func GenerateLearningPlan(ctx context.Context, runner *chain.Runner, req LearningRequest) (*chain.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	result, err := runner.Run(ctx, LearningGuide(), req.Inputs())
	if err != nil {
		return nil, fmt.Errorf("generating learning plan: %w", err)
	}
	return result, nil
}
