package domain

import "time"

type Image struct {
	ID             int       `json:"id"`
	AnswerFileName *string   `json:"answer_file_name" db:"answer_file_name"`
	CloudInit      bool      `json:"cloud_init" db:"cloud_init"`
	DisplayName    string    `json:"display_name" db:"display_name"`
	Filename       string    `json:"filename"`
	MultipleIPs    bool      `json:"multiple_ips" db:"multiple_ips"`
	OSVariant      string    `json:"os_variant" db:"os_variant"`
	Public         bool      `json:"public"`
	ServerTypeID   int       `json:"server_type_id" db:"server_type_id"`
	Created        time.Time `json:"created"`
	Updated        time.Time `json:"updated"`

	// Region ids the image is bound to, loaded from the region_image join.
	Regions []int `json:"regions" db:"-"`
}

// Windows images carry an unattended answer file and skip cloud-init.
func (self Image) Windows() bool {
	return self.AnswerFileName != nil && *self.AnswerFileName != ""
}
