package model

// CV rows are owned by an account through AccountID and listed in insertion
// order. Fields tagged prompt:"-" are left out of the generated prompt text.

type PersonalInfo struct {
	ID           uint    `gorm:"primaryKey;autoIncrement" json:"-"`
	AccountID    string  `gorm:"uniqueIndex;size:16;not null" json:"-"`
	Localization *string `json:"localization"`
	AboutMe      *string `json:"about_me"`
	Aspiration   *string `json:"aspiration"`
	Interests    *string `json:"interests"`
	Phone        *string `json:"phone"`
	Photo        *string `json:"photo"`
	Website      *string `json:"website"`
}

type SocialNetwork struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id" prompt:"-"`
	AccountID   string `gorm:"index;size:16;not null" json:"-"`
	NetworkName string `gorm:"not null" json:"network_name"`
	ProfileLink string `gorm:"not null" json:"profile_link"`
}

type Education struct {
	ID          uint    `gorm:"primaryKey;autoIncrement" json:"id" prompt:"-"`
	AccountID   string  `gorm:"index;size:16;not null" json:"-"`
	Institution string  `gorm:"not null" json:"institution"`
	Area        *string `json:"area"`
	Degree      *string `json:"degree"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
	Location    *string `json:"location"`
	Summary     *string `json:"summary"`
}

type Experience struct {
	ID        uint    `gorm:"primaryKey;autoIncrement" json:"id" prompt:"-"`
	AccountID string  `gorm:"index;size:16;not null" json:"-"`
	Workplace string  `gorm:"not null" json:"workplace"`
	Position  string  `gorm:"not null" json:"position"`
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
	Location  *string `json:"location"`
	Summary   *string `json:"summary"`

	Responsibilities []ExperienceResponsibility `gorm:"foreignKey:ExperienceID;constraint:OnDelete:CASCADE" json:"responsibilities"`
	Achievements     []ExperienceAchievement    `gorm:"foreignKey:ExperienceID;constraint:OnDelete:CASCADE" json:"achievements"`
}

type ExperienceResponsibility struct {
	ID             uint   `gorm:"primaryKey;autoIncrement" json:"id" prompt:"-"`
	ExperienceID   uint   `gorm:"index;not null" json:"-"`
	Responsibility string `gorm:"not null" json:"responsibility"`
}

type ExperienceAchievement struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id" prompt:"-"`
	ExperienceID uint   `gorm:"index;not null" json:"-"`
	Achievement  string `gorm:"not null" json:"achievement"`
}

type Project struct {
	ID          uint    `gorm:"primaryKey;autoIncrement" json:"id" prompt:"-"`
	AccountID   string  `gorm:"index;size:16;not null" json:"-"`
	Name        string  `gorm:"not null" json:"name"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
	Description *string `json:"description"`
	Location    *string `json:"location"`

	Achievements []ProjectAchievement `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"achievements"`
}

type ProjectAchievement struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id" prompt:"-"`
	ProjectID   uint   `gorm:"index;not null" json:"-"`
	Achievement string `gorm:"not null" json:"achievement"`
}

type Skill struct {
	ID        uint    `gorm:"primaryKey;autoIncrement" json:"id" prompt:"-"`
	AccountID string  `gorm:"index;size:16;not null" json:"-"`
	Label     string  `gorm:"not null" json:"label"`
	Detail    *string `json:"detail"`
}

type BasicInfo struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// CV is the read-only composition of everything an account has filled in.
// It is assembled per request and never stored.
type CV struct {
	BasicInfo    BasicInfo     `json:"basic_info"`
	PersonalInfo *PersonalInfo `json:"personal_info"`
	Education    []Education   `json:"education"`
	Experience   []Experience  `json:"experience"`
	Projects     []Project     `json:"projects"`
	Skills       []Skill       `json:"skills"`
}
