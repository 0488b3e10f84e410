// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package normalize

// Synonym keys per canonical field, highest priority first.
// Covers the LinkedIn postings export and the Naukri.com dump
// ("Job Title", "Key Skills", "Job Experience Required", "joblocation_address", "Uniq Id").
var (
	IDKeys = []string{"uniq id", "job id"}

	TitleKeys              = []string{"title", "job_title", "role", "position", "job title"}
	CompanyKeys            = []string{"company_name", "company", "employer"}
	LocationKeys           = []string{"location", "city", "place", "joblocation_address", "job location"}
	EmploymentTypeKeys     = []string{"formatted_work_type", "work_type", "employment_type"}
	ExperienceRequiredKeys = []string{"formatted_experience_level", "experience_required", "experience", "job experience required"}

	RequiredSkillsKeys   = []string{"skills_desc", "required_skills", "skills", "key skills"}
	ResponsibilitiesKeys = []string{"responsibilities", "duties"}
	QualificationsKeys   = []string{"qualifications", "requirements", "education"}
	DescriptionKeys      = []string{"description", "job_description", "job description"}
)
