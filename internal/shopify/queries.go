package shopify

const mailingAddressFragment = `
fragment MailingAddressFields on MailingAddress {
  firstName
  lastName
  company
  address1
  address2
  city
  province
  provinceCode
  country
  countryCodeV2
  zip
  phone
}
`

const draftOrderFragment = `
fragment DraftOrderFields on DraftOrder {
  id
  name
  status
  invoiceUrl
  invoiceSentAt
  createdAt
  email
  note2
  taxesIncluded
  currencyCode
  totalPriceSet { shopMoney { amount currencyCode } }
  subtotalPriceSet { shopMoney { amount currencyCode } }
  totalTaxSet { shopMoney { amount currencyCode } }
  totalDiscountsSet { shopMoney { amount currencyCode } }
  taxLines { title rate priceSet { shopMoney { amount } } }
  appliedDiscount { title description value valueType amountSet { shopMoney { amount } } }
  discountCodes
  shippingLine {
    title
    originalPriceSet { shopMoney { amount } }
    taxLines { title rate priceSet { shopMoney { amount } } }
  }
  lineItems(first: 100) {
    nodes {
      id
      title
      variantTitle
      sku
      vendor
      quantity
      originalUnitPriceSet { shopMoney { amount } }
      originalTotalSet { shopMoney { amount } }
      discountedTotalSet { shopMoney { amount } }
      taxLines { title rate priceSet { shopMoney { amount } } }
      image { url }
      variant { id }
      product { id }
      customAttributes { key value }
    }
  }
  customer { id email firstName lastName phone }
  shippingAddress { ...MailingAddressFields }
  billingAddress { ...MailingAddressFields }
  purchasingEntity {
    ... on PurchasingCompany {
      company { id name }
      location { id }
    }
  }
}
` + mailingAddressFragment

const draftOrderCreateMutation = `
mutation draftOrderCreate($input: DraftOrderInput!) {
  draftOrderCreate(input: $input) {
    draftOrder { ...DraftOrderFields }
    userErrors { field message }
  }
}
` + draftOrderFragment

const draftOrderQuery = `
query draftOrder($id: ID!) {
  draftOrder(id: $id) { ...DraftOrderFields }
}
` + draftOrderFragment

const draftOrderInvoiceSendMutation = `
mutation draftOrderInvoiceSend($id: ID!, $email: EmailInput) {
  draftOrderInvoiceSend(id: $id, email: $email) {
    draftOrder { ...DraftOrderFields }
    userErrors { field message }
  }
}
` + draftOrderFragment

const draftOrderNoteUpdateMutation = `
mutation draftOrderUpdate($id: ID!, $input: DraftOrderInput!) {
  draftOrderUpdate(id: $id, input: $input) {
    draftOrder { id note2 }
    userErrors { field message }
  }
}
`

const metafieldsSetMutation = `
mutation metafieldsSet($metafields: [MetafieldsSetInput!]!) {
  metafieldsSet(metafields: $metafields) {
    metafields { key namespace value }
    userErrors { field message code }
  }
}
`

const companyContactProfilesQuery = `
query customerCompanyContacts($id: ID!) {
  customer(id: $id) {
    id
    companyContactProfiles {
      id
      company { id }
    }
  }
}
`

const stagedUploadsCreateMutation = `
mutation stagedUploadsCreate($input: [StagedUploadInput!]!) {
  stagedUploadsCreate(input: $input) {
    stagedTargets {
      url
      resourceUrl
      parameters { name value }
    }
    userErrors { field message }
  }
}
`

const fileCreateMutation = `
mutation fileCreate($files: [FileCreateInput!]!) {
  fileCreate(files: $files) {
    files {
      id
      alt
      fileStatus
      ... on GenericFile { url }
    }
    userErrors { field message code }
  }
}
`

const fileStatusQuery = `
query fileStatus($id: ID!) {
  node(id: $id) {
    ... on GenericFile {
      id
      alt
      fileStatus
      url
      fileErrors { code message details }
    }
  }
}
`

const shopQuery = `
query shopProfile {
  shop {
    name
    email
    contactEmail
    currencyCode
    primaryDomain { url }
    billingAddress {
      company
      address1
      address2
      city
      zip
      country
      phone
    }
    metafields(namespace: "invoice", first: 50) {
      nodes { key value }
    }
  }
}
`

const cartQuery = `
query cart($id: ID!) {
  cart(id: $id) {
    id
    note
    buyerIdentity {
      email
      phone
      customer { id email firstName lastName phone }
      deliveryAddressPreferences {
        ... on MailingAddress {
          firstName
          lastName
          company
          address1
          address2
          city
          province
          provinceCode
          country
          countryCodeV2
          zip
          phone
        }
      }
    }
    cost {
      subtotalAmount { amount currencyCode }
      totalAmount { amount currencyCode }
    }
    discountCodes { code applicable }
    lines(first: 100) {
      nodes {
        id
        quantity
        attributes { key value }
        cost { amountPerQuantity { amount currencyCode } }
        merchandise {
          ... on ProductVariant {
            id
            title
            sku
            image { url }
            product { id title }
          }
        }
      }
    }
  }
}
`
