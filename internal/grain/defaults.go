package grain

// Default mapping for the SAP material master extract behind the product
// data view. Extracted from the stored procedure that assembles the view;
// each entry names the SAP table a column originates from and the unique
// key combination for that table.

var defaultDefinitions = map[string][]string{
	"MARA":       {"MATERIAL_NUMBER"},                                             // Material Master Basic Data
	"MAKT":       {"MATERIAL_NUMBER"},                                             // Material Description
	"ZPDM":       {"MATERIAL_NUMBER"},                                             // Proprietary/Object Code
	"MARC":       {"MATERIAL_NUMBER", "PLANT"},                                    // Material Master Plant Data
	"MVKE":       {"MATERIAL_NUMBER", "SALES_ORGANIZATION", "DISTRIBUTION_CHANNEL"}, // Sales Org Data
	"MBEW":       {"MATERIAL_NUMBER", "PLANT"},                                    // Valuation Data
	"MARD":       {"MATERIAL_NUMBER", "PLANT", "STORAGE_LOCATION"},                // Storage Location Data
	"MLGT":       {"MATERIAL_NUMBER", "WAREHOUSE_NUMBER"},                         // Warehouse Management Data
	"ZHIERARCHY": {"PROFIT_CENTER"},                                               // Product Group Hierarchy
	"MATSALES":   {"MATERIAL_NUMBER", "SALES_ORGANIZATION"},                       // Sales History
	"PRICECODES": {"MATERIAL_NUMBER", "SALES_ORGANIZATION"},                       // Price Codes
	"CATALOG":    {"MATERIAL_NUMBER"},                                             // Catalog Indicators
}

var defaultColumns = map[string]string{
	// MARA - Material Master Basic Data
	"MATERIAL_NUMBER":              "MARA",
	"SPEC":                         "MARA",
	"MATERIAL_TYPE":                "MARA",
	"INDUSTRY_SECTOR":              "MARA",
	"ITEM_CATEGORY_GROUP":          "MARA",
	"BASE_UNIT_OF_MEASURE":         "MARA",
	"MATERIAL_GROUP":               "MARA",
	"OLD_MATERIAL_NUMBER":          "MARA",
	"DIVISION":                     "MARA",
	"INDUSTRY_STANDARD_DESC":       "MARA",
	"GROSS_WEIGHT":                 "MARA",
	"NET_WEIGHT":                   "MARA",
	"WEIGHT_UNIT":                  "MARA",
	"VOLUME":                       "MARA",
	"VOLUME_UNIT":                  "MARA",
	"TOTAL_SHELF_LIFE_DAYS":        "MARA",
	"STORAGE_TEMP_CONDITIONS":      "MARA",
	"MANUFACTURER_NUMBER":          "MARA",
	"MANUFACTURER_PART_NUMBER":     "MARA",
	"LAB_OFFICE":                   "MARA",
	"CROSS_DIVISION_BATCH_MGMT":    "MARA",
	"GLOBAL_PRODUCT_ID":            "MARA",
	"CREATED_ON":                   "MARA",
	"CHANGED_ON":                   "MARA",
	"FRAME_GROUP":                  "MARA",
	"WARRANTY":                     "MARA",
	"PACK_INDICATOR":               "MARA",
	"SIZE_DIMENSIONS":              "MARA",
	"MINIMUM_REM_SHELF_LIFE_DAYS":  "MARA",

	// MAKT - Material Description
	"MATERIAL_DESCRIPTION": "MAKT",

	// ZPDM - Proprietary/Object Code
	"PROPRIETARY":      "ZPDM",
	"PROPRIETARY_TYPE": "ZPDM",
	"OBJECT_CODE":      "ZPDM",
	"OBJECT_CODE_EXT":  "ZPDM",

	// MARC - Material Master Plant Data
	"PLANT":                        "MARC",
	"PROFIT_CENTER":                "MARC",
	"MRP_TYPE":                     "MARC",
	"SERIAL_NUMBER_PROFILE":        "MARC",
	"PLANT_STATUS":                 "MARC",
	"MRP_CONTROLLER":               "MARC",
	"PROCUREMENT_TYPE":             "MARC",
	"PURCHASING_GROUP":             "MARC",
	"PURCHASING_VALUE_GROUP":       "MARC",
	"AVAILABILITY_CHECK":           "MARC",
	"PRODUCTION_SCHEDULER":         "MARC",
	"LOADING_GROUP":                "MARC",
	"SPECIAL_PROCUREMENT_TYPE":     "MARC",
	"STRATEGY_GROUP":               "MARC",
	"PLANNED_DELIVERY_TIME":        "MARC",
	"IN_HOUSE_PRODUCTION_TIME":     "MARC",
	"PLANNING_TIME_FENCE":          "MARC",
	"ALTERNATIVE_BOM":              "MARC",
	"BOM_USAGE":                    "MARC",
	"FIXED_LOT_SIZE":               "MARC",
	"MINIMUM_LOT_SIZE":             "MARC",
	"MAXIMUM_LOT_SIZE":             "MARC",
	"PROCUREMENT_INDICATOR":        "MARC",
	"VALUATION_CATEGORY":           "MARC",
	"HTS_CODE":                     "MARC",
	"EAN_NUMBER":                   "MARC",
	"COUNTRY_OF_ORIGIN":            "MARC",
	"BATCH_MANAGEMENT":             "MARC",
	"AUTOMATIC_PO":                 "MARC",
	"ABC_INDICATOR":                "MARC",
	"PHYSICAL_INVENTORY_INDICATOR": "MARC",
	"GOODS_RECEIPT_TIME":           "MARC",
	"MRP_GROUP":                    "MARC",
	"SAFETY_STOCK":                 "MARC",

	// MVKE - Sales Organization Data
	"SALES_ORGANIZATION":        "MVKE",
	"DISTRIBUTION_CHANNEL":      "MVKE",
	"SALES_STATUS":              "MVKE",
	"PRODUCT_HIERARCHY":         "MVKE",
	"MATERIAL_GROUP_1":          "MVKE",
	"MATERIAL_GROUP_2":          "MVKE",
	"MATERIAL_GROUP_3":          "MVKE",
	"MATERIAL_GROUP_4":          "MVKE",
	"MATERIAL_GROUP_5":          "MVKE",
	"DELIVERING_PLANT":          "MVKE",
	"SALES_ITEM_CATEGORY_GROUP": "MVKE",
	"DISTRIBUTION_INDICATOR":    "MVKE",
	"PRICING_GROUP":             "MVKE",
	"CASH_DISCOUNT":             "MVKE",
	"MATERIAL_STATISTICS_GROUP": "MVKE",
	"VOLUME_REBATE_GROUP":       "MVKE",
	"ACCOUNT_ASSIGNMENT_GROUP":  "MVKE",
	"COMMISSION_GROUP":          "MVKE",
	"OMS_FLAG":                  "MVKE",

	// MBEW - Valuation Data
	"TOTAL_STOCK":     "MBEW",
	"STANDARD_PRICE":  "MBEW",
	"VALUATION_CLASS": "MBEW",

	// MARD - Storage Location Data
	"CURRENT_INVENTORY": "MARD",
	"STORAGE_LOCATION":  "MARD",

	// MLGT - Warehouse Management Data
	"WAREHOUSE_NUMBER": "MLGT",
	"STORAGE_TYPE":     "MLGT",

	// ZHIERARCHY - Product Group
	"PRODUCT_GROUP": "ZHIERARCHY",

	// MATSALES - Sales History
	"LAST_SALES_DATE": "MATSALES",

	// PRICECODES - Price Codes
	"DISCOUNT_SYMBOL":  "PRICECODES",
	"PRICE_GROUP_CODE": "PRICECODES",

	// CATALOG - Catalog Indicators
	"CATALOG_501": "CATALOG",
}

// DefaultRootKey is the root entity key used for fallback resolution.
var DefaultRootKey = []string{"MATERIAL_NUMBER"}

// DefaultResolver returns a resolver over the SAP material master mapping.
func DefaultResolver(opts ...Option) *Resolver {
	return NewResolver(defaultDefinitions, defaultColumns, DefaultRootKey, opts...)
}
