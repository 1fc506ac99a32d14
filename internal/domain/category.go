package domain

// Category is an industry tag assigned by keyword matching.
type Category struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Icon     string   `json:"icon"`
	Keywords []string `json:"-"`
}

func (c Category) Ref() CategoryRef { return CategoryRef{ID: c.ID, Name: c.Name, Icon: c.Icon} }

const DefaultCategoryID = "otros"

// categories is in match order; the default category stays last and has no keywords.
var categories = []Category{
	{
		ID: "salud", Name: "Salud", Icon: "🏥",
		Keywords: []string{
			"clínica", "clinica", "hospital", "consultorio", "médico", "medico",
			"dental", "dentista", "oftalmólogo", "oftalmologo", "pediatra",
			"ginecólogo", "ginecologo", "laboratorio", "farmacia", "botica",
			"centro médico", "centro medico", "policlínico", "policlinico",
			"san gabriel", "ricardo palma", "good hope", "javier prado",
		},
	},
	{
		ID: "gastronomia", Name: "Gastronomía", Icon: "🍽️",
		Keywords: []string{
			"restaurante", "restaurant", "café", "cafe", "cafetería", "cafeteria",
			"bar", "pizzería", "pizzeria", "cevichería", "cevicheria",
			"chifa", "pollería", "polleria", "panadería", "panaderia",
			"heladería", "heladeria", "pastelería", "pasteleria", "comida",
			"sushi", "burger", "hamburguesería", "hamburgueseria", "cocina",
		},
	},
	{
		ID: "hospedaje", Name: "Hospedaje", Icon: "🏨",
		Keywords: []string{
			"hotel", "hostal", "hospedaje", "alojamiento", "resort",
			"airbnb", "bed and breakfast", "motel", "lodge", "inn",
		},
	},
	{
		ID: "retail", Name: "Retail", Icon: "🛒",
		Keywords: []string{
			"tienda", "supermercado", "minimarket", "bodega", "market",
			"plaza vea", "wong", "metro", "tottus", "vivanda",
			"saga", "ripley", "oechsle", "paris", "electrodomésticos",
		},
	},
	{
		ID: "educacion", Name: "Educación", Icon: "🎓",
		Keywords: []string{
			"universidad", "colegio", "instituto", "academia", "escuela",
			"centro de estudios", "capacitación", "capacitacion", "idiomas",
			"pucp", "ulima", "upc", "usil", "san marcos",
		},
	},
	{
		ID: "servicios", Name: "Servicios", Icon: "💼",
		Keywords: []string{
			"banco", "notaría", "notaria", "abogado", "contador",
			"aseguradora", "seguro", "inmobiliaria", "agencia", "consultoría",
			"bcp", "interbank", "bbva", "scotiabank",
		},
	},
	{ID: DefaultCategoryID, Name: "Otros", Icon: "📍"},
}

// Categories returns a copy of the fixed category list, default last.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

func DefaultCategory() Category { return categories[len(categories)-1] }

func CategoryByID(id string) (Category, bool) {
	for _, c := range categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}
