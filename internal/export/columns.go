package export

// Columns is the full export header: the 52 columns of the official VTEX
// catalog export plus Motivo, Precio and Stock. Order is fixed; the output
// files are diffed between runs.
var Columns = []string{
	"EAN", "ACTIVO", "FOTO", "CATALOGADO",
	"_IDSKU", "_NombreSku", "_ActivarSKUSiEsPosible", "_SkuActivo", "_EANSKU",
	"_Altura", "_AlturaReal", "_Anchura", "_AnchuraReal",
	"_Longitud", "_LongitudReal", "_Peso", "_PesoReal",
	"_UnidadMedida", "_MultiplicadorUnidad", "_CodigoReferenciaSKU",
	"_ValorFidelidad", "_FechaEstimadaLlegada", "_CodigoFabricante",
	"_IDProducto", "_NombreProducto", "_DescripcionCortaProducto",
	"_ProductoActivo", "_CodigoReferenciaProducto", "_MostrarEnSitio",
	"_LinkTexto", "_DescripcionProducto", "_FechaLanzamientoProducto",
	"_PalabrasClave", "_TituloSitio", "_DescripcionMetaTag",
	"_IDProveedor", "_MostrarSinStock", "_Kit",
	"_IDDepartamento", "_NombreDepartamento", "_IDCategoria", "_NombreCategoria",
	"_IDMarca", "_Marca", "_PesoVolumetrico", "_CondicionComercial",
	"_Tiendas", "_Accesorios", "_Similares", "_Sugerencias",
	"_ShowTogether", "_Adjunto",
	"Motivo", "Precio", "Stock",
}

// Row is one assembled export line. All fields except Precio and Stock
// serialize as text; those two stay typed so empty cells are distinguishable
// from zero.
type Row struct {
	EAN        string
	Activo     string
	Foto       string
	Catalogado string

	IDSKU                string
	NombreSku            string
	ActivarSKU           string
	SkuActivo            string
	EANSKU               string
	Altura               string
	AlturaReal           string
	Anchura              string
	AnchuraReal          string
	Longitud             string
	LongitudReal         string
	Peso                 string
	PesoReal             string
	UnidadMedida         string
	MultiplicadorUnidad  string
	CodigoReferenciaSKU  string
	ValorFidelidad       string
	FechaEstimadaLlegada string
	CodigoFabricante     string

	IDProducto               string
	NombreProducto           string
	DescripcionCortaProducto string
	ProductoActivo           string
	CodigoReferenciaProducto string
	MostrarEnSitio           string
	LinkTexto                string
	DescripcionProducto      string
	FechaLanzamiento         string
	PalabrasClave            string
	TituloSitio              string
	DescripcionMetaTag       string
	IDProveedor              string
	MostrarSinStock          string
	Kit                      string

	IDDepartamento     string
	NombreDepartamento string
	IDCategoria        string
	NombreCategoria    string
	IDMarca            string
	Marca              string
	PesoVolumetrico    string
	CondicionComercial string
	Tiendas            string
	Accesorios         string
	Similares          string
	Sugerencias        string
	ShowTogether       string
	Adjunto            string

	Motivo string
	Precio *float64
	Stock  *int
}

// Values returns the row in Columns order. Precio and Stock come back as
// *float64 / *int (nil for an empty cell); everything else is a string.
func (r *Row) Values() []any {
	return []any{
		r.EAN, r.Activo, r.Foto, r.Catalogado,
		r.IDSKU, r.NombreSku, r.ActivarSKU, r.SkuActivo, r.EANSKU,
		r.Altura, r.AlturaReal, r.Anchura, r.AnchuraReal,
		r.Longitud, r.LongitudReal, r.Peso, r.PesoReal,
		r.UnidadMedida, r.MultiplicadorUnidad, r.CodigoReferenciaSKU,
		r.ValorFidelidad, r.FechaEstimadaLlegada, r.CodigoFabricante,
		r.IDProducto, r.NombreProducto, r.DescripcionCortaProducto,
		r.ProductoActivo, r.CodigoReferenciaProducto, r.MostrarEnSitio,
		r.LinkTexto, r.DescripcionProducto, r.FechaLanzamiento,
		r.PalabrasClave, r.TituloSitio, r.DescripcionMetaTag,
		r.IDProveedor, r.MostrarSinStock, r.Kit,
		r.IDDepartamento, r.NombreDepartamento, r.IDCategoria, r.NombreCategoria,
		r.IDMarca, r.Marca, r.PesoVolumetrico, r.CondicionComercial,
		r.Tiendas, r.Accesorios, r.Similares, r.Sugerencias,
		r.ShowTogether, r.Adjunto,
		r.Motivo, r.Precio, r.Stock,
	}
}
