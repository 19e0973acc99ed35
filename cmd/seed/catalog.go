package main

type sampleProduct struct {
	title       string
	description string
	price       string
}

const imageBase = "https://images.grocery.example/products/"

// sampleCatalog maps each storefront category to its demo products.
var sampleCatalog = []struct {
	category string
	products []sampleProduct
}{
	{"Frutas", []sampleProduct{
		{"Manzana Roja x kg", "Manzana roja importada", "6.90"},
		{"Plátano de Seda x kg", "Plátano de seda maduro", "3.50"},
		{"Palta Fuerte x kg", "Palta fuerte de Huaral", "9.80"},
	}},
	{"Verduras", []sampleProduct{
		{"Tomate Italiano x kg", "Tomate italiano fresco", "4.20"},
		{"Cebolla Roja x kg", "Cebolla roja de Arequipa", "2.90"},
		{"Zanahoria x kg", "Zanahoria nacional", "2.40"},
	}},
	{"Carnes", []sampleProduct{
		{"Pechuga de Pollo x kg", "Pechuga de pollo fresca", "15.90"},
		{"Carne Molida x kg", "Carne de res molida especial", "19.90"},
		{"Chuleta de Cerdo x kg", "Chuleta de cerdo nacional", "17.50"},
	}},
	{"Pescados", []sampleProduct{
		{"Filete de Bonito x kg", "Filete de bonito fresco", "14.90"},
		{"Jurel Entero x kg", "Jurel entero del día", "8.50"},
		{"Atún en Conserva 170 g", "Atún en trozos en aceite vegetal", "5.60"},
	}},
	{"Proteínas", []sampleProduct{
		{"Huevos Pardos x 15", "Huevos pardos de granja", "11.90"},
		{"Tofu Firme 400 g", "Tofu firme natural", "8.90"},
		{"Lentejas 500 g", "Lentejas bebé seleccionadas", "4.80"},
	}},
	{"Lácteos", []sampleProduct{
		{"Leche Evaporada 400 g", "Leche evaporada entera", "3.90"},
		{"Yogurt de Fresa 1 L", "Yogurt bebible sabor fresa", "6.50"},
		{"Queso Fresco x kg", "Queso fresco de vaca", "18.90"},
	}},
	{"Bebidas", []sampleProduct{
		{"Agua sin Gas 2.5 L", "Agua de mesa sin gas", "2.80"},
		{"Jugo de Naranja 1 L", "Néctar de naranja", "4.90"},
		{"Gaseosa 1.5 L", "Bebida gaseosa sabor original", "5.50"},
	}},
	{"Panadería", []sampleProduct{
		{"Pan Francés x 10", "Pan francés recién horneado", "3.00"},
		{"Pan de Molde Integral", "Pan de molde integral 600 g", "7.90"},
		{"Keke de Vainilla", "Keke casero de vainilla", "12.90"},
	}},
	{"Limpieza", []sampleProduct{
		{"Detergente 2 kg", "Detergente en polvo multiusos", "19.50"},
		{"Lejía 1 L", "Lejía tradicional", "2.50"},
		{"Lavavajilla 750 ml", "Lavavajilla líquido limón", "6.20"},
	}},
	{"Higiene", []sampleProduct{
		{"Papel Higiénico x 4", "Papel higiénico doble hoja", "5.90"},
		{"Jabón de Tocador x 3", "Jabón humectante", "7.50"},
		{"Pasta Dental 90 g", "Pasta dental con flúor", "4.30"},
	}},
	{"Snacks", []sampleProduct{
		{"Papas Fritas 150 g", "Papas fritas clásicas", "5.20"},
		{"Galletas de Chocolate", "Galletas rellenas de chocolate", "1.50"},
		{"Maní Salado 200 g", "Maní tostado salado", "4.60"},
	}},
	{"Desayuno", []sampleProduct{
		{"Avena 900 g", "Avena tradicional en hojuelas", "6.90"},
		{"Café Molido 250 g", "Café peruano tostado y molido", "13.90"},
		{"Mermelada de Fresa 320 g", "Mermelada de fresa", "5.40"},
	}},
}
