package landrecord

// Kind selects the codec applied to a field on read and write.
type Kind int

const (
	KindText Kind = iota
	KindList
	KindBool
	KindVisitors
)

// Field maps one key of a record section to its flat form key.
type Field struct {
	Section    string
	Key        string
	FormKey    string
	Kind       Kind
	Reviewable bool
}

// Form keys with special handling on save.
const (
	KeyStatus            = "status"
	KeyVerification      = "verification"
	KeyAdminVerification = "admin_verification"
	KeyMediatorName      = "mediator_name"
	KeyVisitors          = "visitors"
	KeySpecialPackage    = "keep_in_special_package"
)

func text(section, key string, reviewable bool) Field {
	return Field{Section: section, Key: key, FormKey: key, Kind: KindText, Reviewable: reviewable}
}

func list(section, key string) Field {
	return Field{Section: section, Key: key, FormKey: key, Kind: KindList, Reviewable: true}
}

// Fields is the flatten table, in payload order.
var Fields = []Field{
	text(SectionLocation, "state", true),
	text(SectionLocation, "district", true),
	text(SectionLocation, "mandal", true),
	text(SectionLocation, "sector", true),
	text(SectionLocation, "village", true),
	text(SectionLocation, "location", true),
	text(SectionLocation, KeyStatus, false),
	text(SectionLocation, KeyVerification, false),
	text(SectionLocation, KeyAdminVerification, false),

	text(SectionFarmer, "name", true),
	text(SectionFarmer, "phone", true),
	text(SectionFarmer, "whatsapp_number", true),
	text(SectionFarmer, "literacy", true),
	text(SectionFarmer, "age_group", true),
	text(SectionFarmer, "nature", true),
	text(SectionFarmer, "land_ownership", true),
	text(SectionFarmer, "mortgage", true),

	text(SectionLand, "land_area", true),
	text(SectionLand, "guntas", true),
	text(SectionLand, "price_per_acre", true),
	text(SectionLand, "total_land_price", true),
	text(SectionLand, "land_type", true),
	list(SectionLand, "water_source"),
	list(SectionLand, "garden"),
	list(SectionLand, "shed_details"),
	text(SectionLand, "farm_pond", true),
	text(SectionLand, "residential", true),
	text(SectionLand, "fencing", true),
	text(SectionLand, "passbook_photo", false),

	text(SectionGPS, "latitude", true),
	text(SectionGPS, "longitude", true),
	text(SectionGPS, "road_path", false),
	// The file upload of the same name owns "land_border" in the payload.
	{Section: SectionGPS, Key: "land_border", FormKey: "land_border_path", Kind: KindText},

	text(SectionDispute, "dispute_type", true),
	text(SectionDispute, "siblings_involve_in_dispute", true),
	text(SectionDispute, "path_to_land", true),

	text(SectionOffice, "mediator_id", false),
	text(SectionOffice, KeyMediatorName, false),
	{Section: SectionOffice, Key: KeySpecialPackage, FormKey: KeySpecialPackage, Kind: KindBool},
	text(SectionOffice, "certified_by", false),
	text(SectionOffice, "certificate_number", false),
	text(SectionOffice, "certificate_date", false),
	text(SectionOffice, "board_start_date", false),
	text(SectionOffice, "board_end_date", false),
	text(SectionOffice, "board_latitude", false),
	text(SectionOffice, "board_longitude", false),
	{Section: SectionOffice, Key: KeyVisitors, FormKey: KeyVisitors, Kind: KindVisitors},
}

var fieldsByFormKey = func() map[string]Field {
	m := make(map[string]Field, len(Fields))
	for _, f := range Fields {
		m[f.FormKey] = f
	}
	return m
}()

// Lookup returns the table entry for a form key.
func Lookup(formKey string) (Field, bool) {
	f, ok := fieldsByFormKey[formKey]
	return f, ok
}

// ReviewFields lists the form keys a reviewer checks off. It is the universe
// used to decide whether a record is fully verified.
var ReviewFields = func() []string {
	var out []string
	for _, f := range Fields {
		if f.Reviewable {
			out = append(out, f.FormKey)
		}
	}
	return out
}()
