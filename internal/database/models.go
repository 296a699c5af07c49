package database

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// =============================================================================
// SHARED TYPES
// =============================================================================

// ContentType identifies the kind of catalog entry a row points at
type ContentType string

const (
	ContentTypeFilm    ContentType = "film"
	ContentTypeSeries  ContentType = "series"
	ContentTypeEpisode ContentType = "episode"
)

// Valid reports whether ct is a known content type
func (ct ContentType) Valid() bool {
	switch ct {
	case ContentTypeFilm, ContentTypeSeries, ContentTypeEpisode:
		return true
	}
	return false
}

// ParseContentType accepts the spellings used by older clients ("movie", "serie").
func ParseContentType(s string) (ContentType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "film", "films", "movie", "movies":
		return ContentTypeFilm, true
	case "series", "serie", "tv", "show":
		return ContentTypeSeries, true
	case "episode", "episodes":
		return ContentTypeEpisode, true
	}
	return "", false
}

// GenreList is a list of canonical genre slugs. It is stored as ",a,b," so a
// single genre can be matched exactly with LIKE '%,slug,%'.
type GenreList []string

func (g GenreList) Value() (driver.Value, error) {
	if len(g) == 0 {
		return "", nil
	}
	return "," + strings.Join(g, ",") + ",", nil
}

func (g *GenreList) Scan(value interface{}) error {
	var raw string
	switch v := value.(type) {
	case nil:
		*g = GenreList{}
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("cannot scan %T into GenreList", value)
	}

	list := GenreList{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			list = append(list, part)
		}
	}
	*g = list
	return nil
}

// GormDataType tells gorm which column type to create
func (GenreList) GormDataType() string {
	return "text"
}

// GenrePattern returns the LIKE pattern matching rows that carry slug
func GenrePattern(slug string) string {
	return "%," + slug + ",%"
}

// newID fills an empty primary key
func newID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// =============================================================================
// USERS & AUTH
// =============================================================================

// Role values
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// UserSettings holds per-user preferences
type UserSettings struct {
	Notifications bool   `gorm:"default:true" json:"notifications"`
	EmailUpdates  bool   `gorm:"default:false" json:"email_updates"`
	Language      string `gorm:"type:varchar(8);default:'fr'" json:"language"`
	Autoplay      bool   `gorm:"default:true" json:"autoplay"`
}

// User is an account. VIP status is only effective while VIPExpiry is unset or in the future.
type User struct {
	ID           string       `gorm:"type:varchar(36);primaryKey" json:"id"`
	Email        string       `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string       `gorm:"not null" json:"-"`
	FullName     string       `json:"full_name"`
	AvatarURL    string       `json:"avatar_url"`
	Role         string       `gorm:"type:varchar(20);not null;default:'user';index" json:"role"`
	IsVIP        bool         `gorm:"column:is_vip;not null;default:false;index" json:"is_vip"`
	VIPExpiry    *time.Time   `gorm:"column:vip_expiry" json:"vip_expiry"`
	IsActive     bool         `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt  *time.Time   `json:"last_login_at"`
	Settings     UserSettings `gorm:"embedded;embeddedPrefix:settings_" json:"settings"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	newID(&u.ID)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// HasActiveVIP reports whether VIP applies at the given instant
func (u *User) HasActiveVIP(now time.Time) bool {
	if !u.IsVIP {
		return false
	}
	return u.VIPExpiry == nil || u.VIPExpiry.After(now)
}

// IsAdmin reports whether the user may use the back-office
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperAdmin
}

// DisplayName falls back to the email when no name was set
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}

// RefreshToken stores the hash of an issued refresh token
type RefreshToken struct {
	ID        string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID    string     `gorm:"type:varchar(36);not null;index" json:"user_id"`
	TokenHash string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at"`
	CreatedAt time.Time  `json:"created_at"`
}

func (t *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	newID(&t.ID)
	return nil
}

// PasswordReset is a single-use reset link. Only the SHA-256 of the token is stored.
type PasswordReset struct {
	ID        string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID    string     `gorm:"type:varchar(36);not null;index" json:"user_id"`
	TokenHash string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	UsedAt    *time.Time `json:"used_at"`
	CreatedAt time.Time  `json:"created_at"`
}

func (p *PasswordReset) BeforeCreate(tx *gorm.DB) error {
	newID(&p.ID)
	return nil
}

// =============================================================================
// CATALOG
// =============================================================================

// Film table
type Film struct {
	ID            string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title         string     `gorm:"not null;index" json:"title"`
	OriginalTitle string     `json:"original_title"`
	Description   string     `gorm:"type:text" json:"description"`
	Poster        string     `json:"poster"`
	Backdrop      string     `json:"backdrop"`
	VideoURL      string     `gorm:"uniqueIndex;not null" json:"video_url"`
	TrailerURL    string     `json:"trailer_url"`
	Genres        GenreList  `json:"genres"`
	Year          int        `gorm:"index" json:"year"`
	ReleaseDate   *time.Time `json:"release_date"`
	Duration      int        `json:"duration"` // In minutes
	Director      string     `json:"director"`
	Popularity    float64    `gorm:"index" json:"popularity"`
	VoteAverage   float64    `json:"vote_average"`
	VoteCount     int        `json:"vote_count"`
	IsVIP         bool       `gorm:"column:is_vip;not null;default:false;index" json:"is_vip"`
	Published     bool       `gorm:"not null;default:false;index" json:"published"`
	TMDBID        *int       `gorm:"uniqueIndex" json:"tmdb_id"`
	CreatedBy     string     `gorm:"type:varchar(36)" json:"created_by,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (f *Film) BeforeCreate(tx *gorm.DB) error {
	newID(&f.ID)
	return nil
}

// Series table
type Series struct {
	ID            string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title         string    `gorm:"not null;index" json:"title"`
	OriginalTitle string    `json:"original_title"`
	Description   string    `gorm:"type:text" json:"description"`
	Poster        string    `json:"poster"`
	Backdrop      string    `json:"backdrop"`
	TrailerURL    string    `json:"trailer_url"`
	Genres        GenreList `json:"genres"`
	StartYear     int       `gorm:"index" json:"start_year"`
	EndYear       int       `json:"end_year"`
	Creator       string    `json:"creator"`
	Popularity    float64   `gorm:"index" json:"popularity"`
	VoteAverage   float64   `json:"vote_average"`
	IsVIP         bool      `gorm:"column:is_vip;not null;default:false;index" json:"is_vip"`
	Published     bool      `gorm:"not null;default:false;index" json:"published"`
	TMDBID        *int      `gorm:"uniqueIndex" json:"tmdb_id"`
	CreatedBy     string    `gorm:"type:varchar(36)" json:"created_by,omitempty"`
	Seasons       []Season  `gorm:"foreignKey:SeriesID;constraint:OnDelete:CASCADE" json:"seasons,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (s *Series) BeforeCreate(tx *gorm.DB) error {
	newID(&s.ID)
	return nil
}

// Season table. SeasonNumber is unique per series.
type Season struct {
	ID           string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	SeriesID     string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_series_season" json:"series_id"`
	SeasonNumber int        `gorm:"not null;uniqueIndex:idx_series_season" json:"season_number"`
	Title        string     `json:"title"`
	Description  string     `gorm:"type:text" json:"description"`
	Poster       string     `json:"poster"`
	AirDate      *time.Time `json:"air_date"`
	TMDBID       *int       `json:"tmdb_id"`
	EpisodeCount int        `json:"episode_count"`
	Episodes     []Episode  `gorm:"foreignKey:SeasonID;constraint:OnDelete:CASCADE" json:"episodes,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (s *Season) BeforeCreate(tx *gorm.DB) error {
	newID(&s.ID)
	return nil
}

// Episode table. EpisodeNumber is unique per season.
type Episode struct {
	ID            string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	SeriesID      string     `gorm:"type:varchar(36);not null;index" json:"series_id"`
	SeasonID      string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_season_episode" json:"season_id"`
	EpisodeNumber int        `gorm:"not null;uniqueIndex:idx_season_episode" json:"episode_number"`
	Title         string     `json:"title"`
	Description   string     `gorm:"type:text" json:"description"`
	Thumbnail     string     `json:"thumbnail"`
	AirDate       *time.Time `json:"air_date"`
	Runtime       int        `json:"runtime"` // In minutes
	TMDBID        *int       `json:"tmdb_id"`
	VoteAverage   float64    `json:"vote_average"`
	VoteCount     int        `json:"vote_count"`
	IsVIP         bool       `gorm:"column:is_vip;not null;default:false" json:"is_vip"`
	Published     bool       `gorm:"not null;default:false;index" json:"published"`
	VideoURL      string     `json:"video_url"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (e *Episode) BeforeCreate(tx *gorm.DB) error {
	newID(&e.ID)
	return nil
}

// =============================================================================
// USER ENGAGEMENT
// =============================================================================

// Favorite links a user to a film, series or episode
type Favorite struct {
	ID          string      `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID      string      `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_favorite" json:"user_id"`
	ContentType ContentType `gorm:"type:varchar(16);not null;uniqueIndex:idx_user_favorite" json:"content_type"`
	ContentID   string      `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_favorite" json:"content_id"`
	CreatedAt   time.Time   `gorm:"index" json:"created_at"`
}

func (f *Favorite) BeforeCreate(tx *gorm.DB) error {
	newID(&f.ID)
	return nil
}

// WatchHistory is one entry per (user, content); only the newest entries are kept.
type WatchHistory struct {
	ID          string      `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID      string      `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_history" json:"user_id"`
	ContentType ContentType `gorm:"type:varchar(16);not null;uniqueIndex:idx_user_history" json:"content_type"`
	ContentID   string      `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_history" json:"content_id"`
	SeriesID    string      `gorm:"type:varchar(36);index" json:"series_id,omitempty"`
	Progress    float64     `json:"progress"` // Percentage 0-100
	Position    int         `json:"position"` // In seconds
	Duration    int         `json:"duration"` // In seconds
	WatchedAt   time.Time   `gorm:"index" json:"watched_at"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func (h *WatchHistory) BeforeCreate(tx *gorm.DB) error {
	newID(&h.ID)
	return nil
}

// WatchedEpisode marks an episode as seen by a user
type WatchedEpisode struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_watched" json:"user_id"`
	EpisodeID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_watched" json:"episode_id"`
	SeriesID  string    `gorm:"type:varchar(36);not null;index" json:"series_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (w *WatchedEpisode) BeforeCreate(tx *gorm.DB) error {
	newID(&w.ID)
	return nil
}

// Comment status values
const (
	CommentApproved = "approved"
	CommentPending  = "pending"
	CommentRejected = "rejected"
)

// Comment is a user review on a catalog entry
type Comment struct {
	ID           string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID       string          `gorm:"type:varchar(36);not null;index" json:"user_id"`
	UserName     string          `json:"user_name"`
	UserAvatar   string          `json:"user_avatar,omitempty"`
	ContentType  ContentType     `gorm:"type:varchar(16);not null;index:idx_comment_content" json:"content_type"`
	ContentID    string          `gorm:"type:varchar(36);not null;index:idx_comment_content" json:"content_id"`
	ContentTitle string          `json:"content_title,omitempty"`
	Text         string          `gorm:"type:text;not null" json:"text"`
	Rating       int             `json:"rating"`
	Status       string          `gorm:"type:varchar(16);not null;default:'approved';index" json:"status"`
	ReportCount  int             `gorm:"not null;default:0" json:"report_count"`
	Reports      []CommentReport `gorm:"foreignKey:CommentID;constraint:OnDelete:CASCADE" json:"reports,omitempty"`
	CreatedAt    time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	newID(&c.ID)
	return nil
}

// CommentReport is one user's report on a comment
type CommentReport struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CommentID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_comment_reporter" json:"comment_id"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_comment_reporter" json:"user_id"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

func (r *CommentReport) BeforeCreate(tx *gorm.DB) error {
	newID(&r.ID)
	return nil
}

// Suggestion is a TMDB title a member would like to see in the catalog. Each
// title can be suggested once.
type Suggestion struct {
	ID          string      `gorm:"type:varchar(36);primaryKey" json:"id"`
	TMDBID      int         `gorm:"not null;uniqueIndex:idx_suggestion_tmdb" json:"tmdb_id"`
	MediaType   ContentType `gorm:"type:varchar(16);not null;uniqueIndex:idx_suggestion_tmdb" json:"type"`
	Title       string      `gorm:"not null" json:"title"`
	Year        string      `gorm:"type:varchar(4)" json:"year,omitempty"`
	Description string      `gorm:"type:text" json:"description,omitempty"`
	PosterPath  string      `json:"poster_path,omitempty"`
	UserID      *string     `gorm:"type:varchar(36);index" json:"user_id"`
	UserName    string      `json:"user_name,omitempty"`
	UserEmail   string      `json:"user_email,omitempty"`
	CreatedAt   time.Time   `gorm:"index" json:"created_at"`
}

func (s *Suggestion) BeforeCreate(tx *gorm.DB) error {
	newID(&s.ID)
	return nil
}

// DetachSuggestions keeps the suggestions of a deleted user but forgets who
// made them. It is a no-op when suggestions are not migrated.
func DetachSuggestions(tx *gorm.DB, userID string) error {
	if !tx.Migrator().HasTable(&Suggestion{}) {
		return nil
	}
	err := tx.Model(&Suggestion{}).Where("user_id = ?", userID).
		Updates(map[string]interface{}{"user_id": nil, "user_name": "", "user_email": ""}).Error
	if err != nil {
		return fmt.Errorf("failed to detach suggestions: %w", err)
	}
	return nil
}

// =============================================================================
// BILLING
// =============================================================================

// Subscription status values
const (
	SubscriptionPending  = "pending"
	SubscriptionActive   = "active"
	SubscriptionCanceled = "canceled"
	SubscriptionExpired  = "expired"
	SubscriptionPastDue  = "past_due"
)

// Subscription is a paid plan period
type Subscription struct {
	ID                   string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID               string     `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Plan                 string     `gorm:"type:varchar(16);not null" json:"plan"`
	BillingPeriod        string     `gorm:"type:varchar(16);not null" json:"billing_period"`
	Status               string     `gorm:"type:varchar(16);not null;index" json:"status"`
	StartDate            *time.Time `json:"start_date"`
	EndDate              *time.Time `gorm:"index" json:"end_date"`
	AutoRenew            bool       `json:"auto_renew"`
	PaymentMethod        string     `json:"payment_method"`
	StripeCustomerID     string     `json:"-"`
	StripeSubscriptionID string     `gorm:"index" json:"-"`
	StripeSessionID      string     `gorm:"index" json:"-"`
	Payments             []Payment  `gorm:"foreignKey:SubscriptionID" json:"payments,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	newID(&s.ID)
	return nil
}

// Payment records one charge for a subscription
type Payment struct {
	ID             string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	SubscriptionID string    `gorm:"type:varchar(36);not null;index" json:"subscription_id"`
	UserID         string    `gorm:"type:varchar(36);not null;index" json:"user_id"`
	AmountCents    int64     `json:"amount_cents"`
	TaxCents       int64     `json:"tax_cents"`
	Currency       string    `gorm:"type:varchar(8)" json:"currency"`
	Status         string    `gorm:"type:varchar(16)" json:"status"`
	Provider       string    `gorm:"type:varchar(16)" json:"provider"`
	ProviderRef    string    `json:"provider_ref,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	newID(&p.ID)
	return nil
}

// WebhookEvent remembers processed provider events
type WebhookEvent struct {
	ID          string    `gorm:"type:varchar(255);primaryKey" json:"id"`
	Type        string    `json:"type"`
	ProcessedAt time.Time `json:"processed_at"`
}

// =============================================================================
// ADMIN ACTIVITY
// =============================================================================

// ActivityLog is an audit entry for an admin action
type ActivityLog struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	AdminID    string    `gorm:"type:varchar(36);not null;index" json:"admin_id"`
	AdminName  string    `json:"admin_name"`
	Action     string    `gorm:"type:varchar(16);not null;index" json:"action"`
	EntityType string    `gorm:"type:varchar(16);not null;index" json:"entity_type"`
	EntityID   string    `gorm:"type:varchar(36);index" json:"entity_id"`
	EntityName string    `json:"entity_name"`
	IP         string    `gorm:"type:varchar(64)" json:"ip"`
	UserAgent  string    `json:"user_agent"`
	Details    string    `gorm:"type:text" json:"details,omitempty"`
	Timestamp  time.Time `gorm:"not null;index" json:"timestamp"`
}

func (a *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	newID(&a.ID)
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now()
	}
	return nil
}

// AllModels lists every table in migration order
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&RefreshToken{},
		&PasswordReset{},
		&Film{},
		&Series{},
		&Season{},
		&Episode{},
		&Favorite{},
		&WatchHistory{},
		&WatchedEpisode{},
		&Comment{},
		&CommentReport{},
		&Suggestion{},
		&Subscription{},
		&Payment{},
		&WebhookEvent{},
		&ActivityLog{},
	}
}
