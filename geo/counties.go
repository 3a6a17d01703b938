package geo

import "strings"

// LatLon is a WGS-84 coordinate.
type LatLon struct {
	Latitude  float64
	Longitude float64
}

// countyCentroids holds the approximate geographic centre of each of
// Iowa's 99 counties, keyed by normalised name. Read-only after init.
var countyCentroids = buildCentroidIndex(map[string]LatLon{
	"Adair":         {41.3307, -94.4709},
	"Adams":         {41.0290, -94.6993},
	"Allamakee":     {43.2843, -91.3781},
	"Appanoose":     {40.7432, -92.8687},
	"Audubon":       {41.6846, -94.9058},
	"Benton":        {42.0802, -92.0657},
	"Black Hawk":    {42.4702, -92.3088},
	"Boone":         {42.0364, -93.9317},
	"Bremer":        {42.7747, -92.3180},
	"Buchanan":      {42.4707, -91.8388},
	"Buena Vista":   {42.7355, -95.1412},
	"Butler":        {42.7316, -92.7903},
	"Calhoun":       {42.3851, -94.6404},
	"Carroll":       {42.0362, -94.8606},
	"Cass":          {41.3315, -94.9279},
	"Cedar":         {41.7724, -91.1324},
	"Cerro Gordo":   {43.0816, -93.2610},
	"Cherokee":      {42.7355, -95.6237},
	"Chickasaw":     {43.0600, -92.3177},
	"Clarke":        {41.0290, -93.7852},
	"Clay":          {43.0825, -95.1509},
	"Clayton":       {42.8441, -91.3414},
	"Clinton":       {41.8979, -90.5320},
	"Crawford":      {42.0372, -95.3820},
	"Dallas":        {41.6848, -94.0397},
	"Davis":         {40.7477, -92.4095},
	"Decatur":       {40.7377, -93.7863},
	"Delaware":      {42.4712, -91.3673},
	"Des Moines":    {40.9232, -91.1815},
	"Dickinson":     {43.3779, -95.1508},
	"Dubuque":       {42.4688, -90.8826},
	"Emmet":         {43.3780, -94.6784},
	"Fayette":       {42.8626, -91.8442},
	"Floyd":         {43.0598, -92.7891},
	"Franklin":      {42.7323, -93.2625},
	"Fremont":       {40.7456, -95.6047},
	"Greene":        {42.0362, -94.3967},
	"Grundy":        {42.4018, -92.7914},
	"Guthrie":       {41.6838, -94.5010},
	"Hamilton":      {42.3837, -93.7068},
	"Hancock":       {43.0819, -93.7344},
	"Hardin":        {42.3839, -93.2404},
	"Harrison":      {41.6829, -95.8168},
	"Henry":         {40.9880, -91.5445},
	"Howard":        {43.3567, -92.3172},
	"Humboldt":      {42.7765, -94.2076},
	"Ida":           {42.3865, -95.5134},
	"Iowa":          {41.6864, -92.0654},
	"Jackson":       {42.1717, -90.5743},
	"Jasper":        {41.6860, -93.0538},
	"Jefferson":     {41.0318, -91.9491},
	"Johnson":       {41.6716, -91.5881},
	"Jones":         {42.1212, -91.1314},
	"Keokuk":        {41.3365, -92.1785},
	"Kossuth":       {43.2042, -94.2067},
	"Lee":           {40.6421, -91.4791},
	"Linn":          {42.0789, -91.5989},
	"Louisa":        {41.2185, -91.2597},
	"Lucas":         {41.0294, -93.3275},
	"Lyon":          {43.3805, -96.2102},
	"Madison":       {41.3306, -94.0153},
	"Mahaska":       {41.3352, -92.6409},
	"Marion":        {41.3345, -93.0994},
	"Marshall":      {42.0359, -92.9988},
	"Mills":         {41.0335, -95.6213},
	"Mitchell":      {43.3564, -92.7892},
	"Monona":        {42.0517, -95.9597},
	"Monroe":        {41.0297, -92.8693},
	"Montgomery":    {41.0301, -95.1564},
	"Muscatine":     {41.4845, -91.1130},
	"O'Brien":       {43.0837, -95.6248},
	"Osceola":       {43.3784, -95.6237},
	"Page":          {40.7392, -95.1503},
	"Palo Alto":     {43.0821, -94.6782},
	"Plymouth":      {42.7378, -96.2141},
	"Pocahontas":    {42.7341, -94.6786},
	"Polk":          {41.6855, -93.5735},
	"Pottawattamie": {41.3366, -95.5424},
	"Poweshiek":     {41.6864, -92.5316},
	"Ringgold":      {40.7352, -94.2441},
	"Sac":           {42.3863, -95.1052},
	"Scott":         {41.6371, -90.6232},
	"Shelby":        {41.6851, -95.3103},
	"Sioux":         {43.0826, -96.1779},
	"Story":         {42.0362, -93.4650},
	"Tama":          {42.0798, -92.5328},
	"Taylor":        {40.7374, -94.6965},
	"Union":         {41.0277, -94.2424},
	"Van Buren":     {40.7532, -91.9500},
	"Wapello":       {41.0306, -92.4095},
	"Warren":        {41.3343, -93.5614},
	"Washington":    {41.3356, -91.7179},
	"Wayne":         {40.7396, -93.3273},
	"Webster":       {42.4279, -94.1819},
	"Winnebago":     {43.3776, -93.7343},
	"Winneshiek":    {43.2906, -91.8438},
	"Woodbury":      {42.3897, -96.0448},
	"Worth":         {43.3774, -93.2609},
	"Wright":        {42.7331, -93.7350},
})

func buildCentroidIndex(byName map[string]LatLon) map[string]LatLon {
	index := make(map[string]LatLon, len(byName))
	for name, ll := range byName {
		index[normalizeCountyName(name)] = ll
	}
	return index
}

// normalizeCountyName trims whitespace, drops a trailing "County" suffix in
// any case, lower-cases and removes apostrophes.
func normalizeCountyName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if strings.HasSuffix(n, "county") {
		n = strings.TrimSpace(strings.TrimSuffix(n, "county"))
	}
	n = strings.NewReplacer("'", "", "’", "", ".", "").Replace(n)
	return strings.Join(strings.Fields(n), " ")
}

// CountyCentroid returns the centroid for a county name such as "Story",
// "story county" or " Story ". Unknown names report false.
func CountyCentroid(name string) (LatLon, bool) {
	key := normalizeCountyName(name)
	if key == "" {
		return LatLon{}, false
	}
	ll, ok := countyCentroids[key]
	return ll, ok
}

// CountyCount returns the number of counties in the table.
func CountyCount() int {
	return len(countyCentroids)
}
