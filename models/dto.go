package models

type GarmentCreateIn struct {
	Name          string  `json:"name" validate:"omitempty,max=100"`
	FileName      string  `json:"file_name" validate:"required,max=200"`
	PurchasePrice float64 `json:"purchase_price" validate:"gte=0"`
	FabricType    *string `json:"fabric_type" validate:"omitempty,fabric"`
}

type GarmentFabricIn struct {
	FabricType string `json:"fabric_type" validate:"required,fabric"`
}

type DiscardIn struct {
	Method string `json:"method" validate:"max=50"`
}

type WearConfirmIn struct {
	TopID    *uint `json:"top_id"`
	BottomID *uint `json:"bottom_id"`
}

type TryOnIn struct {
	TopID    *uint `json:"top_id"`
	BottomID *uint `json:"bottom_id"`
}

type OutfitSaveIn struct {
	TryOnJobID *uint  `json:"try_on_job_id"`
	Name       string `json:"name" validate:"omitempty,max=100"`
}

type ScheduleIn struct {
	ScheduledDate string `json:"scheduled_date"`
	TopID         *uint  `json:"top_id"`
	BottomID      *uint  `json:"bottom_id"`
	TryOnJobID    *uint  `json:"try_on_job_id"`
	Source        string `json:"source" validate:"omitempty,oneof=ai tryon manual"`
	Occasion      string `json:"occasion" validate:"omitempty,max=100"`
	NotifyOnDay   *bool  `json:"notify_on_day"`
}

type ScheduleNotifyIn struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type SeasonIn struct {
	Undertone      string   `json:"undertone" validate:"required,undertone"`
	SkinValue      *float64 `json:"skin_value" validate:"omitempty,gte=0,lte=255"`
	SkinSaturation *float64 `json:"skin_saturation" validate:"omitempty,gte=0,lte=255"`
	Contrast       *float64 `json:"contrast" validate:"omitempty,gte=0,lte=255"`
	SelfieKey      *string  `json:"selfie_key"`
}

type LocationIn struct {
	City     *string  `json:"city" validate:"omitempty,max=100"`
	Lat      *float64 `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lon      *float64 `json:"lon" validate:"omitempty,gte=-180,lte=180"`
	Timezone *string  `json:"timezone" validate:"omitempty,max=64"`
}

type ToggleIn struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type PhotoUploadIn struct {
	FileName string `json:"file_name" validate:"required,max=200"`
}

type PhotoUploadOut struct {
	FileKey   string `json:"file_key"`
	UploadUrl string `json:"upload_url"`
}

type TelegramLinkIn struct {
	Username string `json:"username" validate:"max=64"`
}

type ClaimIn struct {
	Key string `json:"key"`
}
