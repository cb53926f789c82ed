package db

import (
	_ "embed"
	"fmt"
	"io"
	"math/rand"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed fixtures/profiles.yaml
var defaultFixtures []byte

// Fixtures is the YAML seed format: users (optionally with a profile) and
// the swipes between them. Mutual interested swipes become matches.
type Fixtures struct {
	Users  []FixtureUser  `yaml:"users"`
	Swipes []FixtureSwipe `yaml:"swipes"`
}

type FixtureUser struct {
	ID      string          `yaml:"id"`
	Email   string          `yaml:"email"`
	Profile *FixtureProfile `yaml:"profile"`
}

type FixtureProfile struct {
	Name           string   `yaml:"name"`
	Age            int      `yaml:"age"`
	Major          string   `yaml:"major"`
	Gender         string   `yaml:"gender"`
	Location       string   `yaml:"location"`
	Region         string   `yaml:"region"`
	SameGenderPref string   `yaml:"same_gender_pref"`
	MaxPrice       int      `yaml:"max_price"`
	MoveInDate     string   `yaml:"move_in_date"`
	JobType        string   `yaml:"job_type"`
	Bio            string   `yaml:"bio"`
	PhotoURLs      []string `yaml:"photo_urls"`
	Inactive       bool     `yaml:"inactive"`
}

type FixtureSwipe struct {
	Swiper string `yaml:"swiper"`
	Swiped string `yaml:"swiped"`
	Action string `yaml:"action"`
}

// LoadFixtures parses YAML fixtures from r.
func LoadFixtures(r io.Reader) (*Fixtures, error) {
	var fx Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	return &fx, nil
}

// DefaultFixtures returns the fixtures embedded in the binary.
func DefaultFixtures() (*Fixtures, error) {
	return LoadFixtures(strings.NewReader(string(defaultFixtures)))
}

// GenerateFixtures appends n random users with profiles and ~8 swipes each,
// for load-ish local testing on top of the hand-written fixtures.
func GenerateFixtures(fx *Fixtures, n int, r *rand.Rand) {
	genders := []string{GenderMale, GenderFemale, GenderNonBinary, GenderOther}
	locations := []string{"U District, Seattle", "Capitol Hill, Seattle", "Bellevue, WA", "Redmond, WA", "Ballard, Seattle"}
	majors := []string{"Computer Science", "Informatics", "Economics", "Biology", "Mechanical Engineering"}
	jobs := []string{JobInternship, JobFullTime}

	start := len(fx.Users)
	for i := 0; i < n; i++ {
		id := uuid.NewString()
		fx.Users = append(fx.Users, FixtureUser{
			ID:    id,
			Email: fmt.Sprintf("student%d@uw.edu", start+i+1),
			Profile: &FixtureProfile{
				Name:           fmt.Sprintf("Student %d", start+i+1),
				Age:            18 + r.Intn(8),
				Major:          majors[r.Intn(len(majors))],
				Gender:         genders[r.Intn(len(genders))],
				Location:       locations[r.Intn(len(locations))],
				SameGenderPref: SameGenderNoPreference,
				MaxPrice:       900 + 50*r.Intn(20),
				MoveInDate:     fmt.Sprintf("2026-%02d-01", 6+r.Intn(4)),
				JobType:        jobs[r.Intn(len(jobs))],
			},
		})
	}

	for i := start; i < len(fx.Users); i++ {
		for j := 0; j < 8; j++ {
			k := r.Intn(len(fx.Users))
			if k == i {
				continue
			}
			// like probability 70%
			action := ActionPass
			if r.Intn(100) < 70 {
				action = ActionInterested
			}
			fx.Swipes = append(fx.Swipes, FixtureSwipe{Swiper: fx.Users[i].ID, Swiped: fx.Users[k].ID, Action: action})
		}
	}
}

// SeedTestData resets the database and loads fx.
//
// Behavior:
//  1. Clears messages, matches, swipes, profiles and users.
//  2. Inserts users and their profiles.
//  3. Inserts swipes; repeated pairs keep the first decision.
//  4. Creates a match for every mutual interested pair.
func SeedTestData(db *gorm.DB, fx *Fixtures) error {
	// --- Fresh start ---
	for _, table := range []string{"messages", "matches", "swipes", "profiles", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, u := range fx.Users {
		if err := db.Create(&User{ID: u.ID, Email: u.Email}).Error; err != nil {
			return fmt.Errorf("failed to seed user %s: %w", u.ID, err)
		}
		if u.Profile == nil {
			continue
		}
		p := u.Profile.toModel(u.ID)
		if err := db.Create(&p).Error; err != nil {
			return fmt.Errorf("failed to seed profile %s: %w", u.ID, err)
		}
	}

	interested := make(map[[2]string]bool)
	for _, s := range fx.Swipes {
		if s.Swiper == s.Swiped {
			continue
		}
		swipe := Swipe{SwiperID: s.Swiper, SwipedID: s.Swiped, Action: s.Action}
		res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&swipe)
		if res.Error != nil {
			return fmt.Errorf("failed to seed swipe: %w", res.Error)
		}
		if res.RowsAffected == 1 && s.Action == ActionInterested {
			interested[[2]string{s.Swiper, s.Swiped}] = true
		}
	}

	for pair := range interested {
		if !interested[[2]string{pair[1], pair[0]}] {
			continue
		}
		u1, u2 := CanonicalPair(pair[0], pair[1])
		m := Match{ID: uuid.NewString(), User1ID: u1, User2ID: u2}
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user1_id"}, {Name: "user2_id"}},
			DoNothing: true,
		}).Create(&m).Error
		if err != nil {
			return fmt.Errorf("failed to seed match: %w", err)
		}
	}

	return nil
}

func (fp *FixtureProfile) toModel(userID string) Profile {
	pref := fp.SameGenderPref
	if pref == "" {
		pref = SameGenderNoPreference
	}
	p := Profile{
		UserID:         userID,
		Name:           fp.Name,
		Age:            fp.Age,
		Major:          optional(fp.Major),
		Gender:         optional(fp.Gender),
		Location:       fp.Location,
		Region:         optional(fp.Region),
		SameGenderPref: pref,
		MoveInDate:     optional(fp.MoveInDate),
		JobType:        optional(fp.JobType),
		Bio:            optional(fp.Bio),
		PhotoURLs:      append([]string{}, fp.PhotoURLs...),
		IsActive:       !fp.Inactive,
	}
	if fp.MaxPrice > 0 {
		price := fp.MaxPrice
		p.MaxPrice = &price
	}
	return p
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
